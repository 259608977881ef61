package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/intentflow/intentflow/internal/clients"
	"github.com/intentflow/intentflow/internal/clients/kafka_client"
	"github.com/intentflow/intentflow/internal/models"
)

const defaultHighIntentCommentNum = 5

// IntentExtractor is the orchestrator surface the handler needs; tests
// substitute a fake.
type IntentExtractor interface {
	ExtractHighIntent(ctx context.Context, videoInfo string, comments []models.Comment, requested int) ([]models.Comment, error)
}

type Handler struct {
	extractor    IntentExtractor
	cache        *clients.ValkeyClient
	publishLeads bool
}

func NewHandler(extractor IntentExtractor, cache *clients.ValkeyClient, publishLeads bool) *Handler {
	return &Handler{
		extractor:    extractor,
		cache:        cache,
		publishLeads: publishLeads,
	}
}

type HighIntentRequest struct {
	VideoInfo string `json:"video_info"`
	// The original batch tool sends the field misspelled; the legacy
	// route still receives such bodies.
	LegacyVideoInfo      string           `json:"vedio_info"`
	CommentList          []models.Comment `json:"comment_list" binding:"required"`
	HighIntentCommentNum int              `json:"high_intent_comment_num" binding:"omitempty,gt=0"`
}

func (r *HighIntentRequest) videoInfo() string {
	if r.VideoInfo != "" {
		return r.VideoInfo
	}
	return r.LegacyVideoInfo
}

// GetHighIntentComments handles POST /api/v1/comments/high-intent.
// Malformed bodies get a 400; LLM-side failures degrade to 200 with an
// empty list, never a 5xx.
func (h *Handler) GetHighIntentComments(c *gin.Context) {
	var req HighIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("[API] Invalid high-intent request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	videoInfo := req.videoInfo()
	if videoInfo == "" {
		slog.Warn("[API] Invalid high-intent request", slog.String("error", "missing video_info"))
		c.JSON(http.StatusBadRequest, gin.H{"error": "video_info is required"})
		return
	}
	if req.HighIntentCommentNum == 0 {
		req.HighIntentCommentNum = defaultHighIntentCommentNum
	}

	uids := make([]string, 0, len(req.CommentList))
	for _, comment := range req.CommentList {
		uids = append(uids, comment.UID)
	}
	digest := clients.ExtractionDigest(videoInfo, uids, req.HighIntentCommentNum)

	if h.cache != nil {
		if cached, ok := h.cache.GetCachedExtraction(c.Request.Context(), digest); ok {
			slog.Info("[API] Serving extraction from cache", slog.String("digest", digest))
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	result, err := h.extractor.ExtractHighIntent(
		c.Request.Context(), videoInfo, req.CommentList, req.HighIntentCommentNum)
	if err != nil {
		// The pipeline's contract: LLM failures never surface to the
		// HTTP caller as errors.
		slog.Error("[API] Extraction failed, returning empty result",
			slog.String("digest", digest),
			slog.String("error", err.Error()))
		c.JSON(http.StatusOK, []models.Comment{})
		return
	}
	if result == nil {
		result = []models.Comment{}
	}

	if h.cache != nil && len(result) > 0 {
		if err := h.cache.CacheExtraction(c.Request.Context(), digest, result); err != nil {
			slog.Warn("[API] Failed to cache extraction result",
				slog.String("error", err.Error()))
		}
	}

	if h.publishLeads && len(result) > 0 {
		event := models.HighIntentLeadEvent{
			Digest:      digest,
			VideoInfo:   videoInfo,
			Comments:    result,
			ExtractedAt: time.Now().UTC(),
		}
		if err := kafka_client.PublishHighIntentLeads(event); err != nil {
			slog.Warn("[API] Failed to publish lead event",
				slog.String("digest", digest),
				slog.String("error", err.Error()))
		}
	}

	c.JSON(http.StatusOK, result)
}
