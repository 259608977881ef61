package api

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes wires the service routes. The legacy path mirrors the
// original batch tooling; new callers use /api/v1.
func SetupRoutes(router *gin.Engine, handler *Handler, llmHealthy *atomic.Bool) {
	router.Use(RequestID())

	v1 := router.Group("/api/v1")
	v1.POST("/comments/high-intent", handler.GetHighIntentComments)

	// Kept for callers of the original endpoint.
	router.POST("/get_high_intent_comments", handler.GetHighIntentComments)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		if llmHealthy != nil && !llmHealthy.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "llm unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RequestID tags every request so log lines from one call correlate.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}
