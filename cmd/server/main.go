package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/intentflow/intentflow/config"
	"github.com/intentflow/intentflow/internal/api"
	"github.com/intentflow/intentflow/internal/clients"
	"github.com/intentflow/intentflow/internal/clients/kafka_client"
	"github.com/intentflow/intentflow/internal/intent"
	"github.com/intentflow/intentflow/internal/llm"
	"github.com/intentflow/intentflow/internal/logging"
	"github.com/intentflow/intentflow/internal/monitoring"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	settingsPath := os.Getenv("LLM_CONFIG")
	if settingsPath == "" {
		settingsPath = "config/config.toml"
	}
	settings, err := llm.LoadSettings(settingsPath)
	if err != nil {
		slog.Error("Failed to load LLM settings", slog.String("error", err.Error()))
		os.Exit(1)
	}

	client, err := llm.NewClient(settings)
	if err != nil {
		slog.Error("Failed to build LLM client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	extractor := intent.NewExtractor(client)

	var cache *clients.ValkeyClient
	if os.Getenv("CACHE_ENABLED") == "true" {
		cache = clients.InitValkey()
		defer clients.CloseValkey()
	}

	publishLeads := os.Getenv("KAFKA_ENABLED") == "true"
	if publishLeads {
		for {
			err := kafka_client.InitKafkaProducer(kafka_client.GetKafkaConfig())
			if err == nil {
				break
			}
			slog.Warn("Kafka init failed, retrying...", slog.String("error", err.Error()))
			time.Sleep(5 * time.Second)
		}
		defer kafka_client.CloseKafkaProducer()
	}

	port, err := strconv.Atoi(os.Getenv("HTTP_PORT"))
	if err != nil {
		port = 8000
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var llmHealthy atomic.Bool
	llmHealthy.Store(true)
	go monitoring.MonitorLLMHealth(ctx, client, &llmHealthy)

	server := api.NewServer(
		api.NewHandler(extractor, cache, publishLeads),
		port, &llmHealthy, os.Getenv("GIN_DEBUG") == "true")

	go func() {
		slog.Info("Starting high-intent API server", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server exited", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Forced shutdown", slog.String("error", err.Error()))
	}
}
