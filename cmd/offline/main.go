package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intentflow/intentflow/config"
	"github.com/intentflow/intentflow/internal/clients"
	"github.com/intentflow/intentflow/internal/clients/kafka_client"
	"github.com/intentflow/intentflow/internal/ingest"
	"github.com/intentflow/intentflow/internal/intent"
	"github.com/intentflow/intentflow/internal/llm"
	"github.com/intentflow/intentflow/internal/logging"
	"github.com/intentflow/intentflow/internal/models"
	"github.com/intentflow/intentflow/internal/utils"
)

const reportFlushSize = 10

// videoResult is one line of the offline report.
type videoResult struct {
	VideoID            string           `json:"video_id"`
	VideoInfo          string           `json:"video_info"`
	CommentCount       int              `json:"comment_count"`
	HighIntentComments []models.Comment `json:"high_intent_comments"`
}

func main() {
	filePath := flag.String("file", "demo_data/output.xlsx", "comment export workbook")
	outPath := flag.String("out", "high_intent_report.json", "JSON report destination")
	commentNum := flag.Int("num", 5, "high-intent comments to request per video")
	settingsPath := flag.String("config", "config/config.toml", "LLM settings file")
	flag.Parse()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	settings, err := llm.LoadSettings(*settingsPath)
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

	publishLeads := os.Getenv("KAFKA_ENABLED") == "true"
	if publishLeads {
		if err := kafka_client.InitKafkaProducer(kafka_client.GetKafkaConfig()); err != nil {
			slog.Error("Kafka init failed, continuing without lead events",
				slog.String("error", err.Error()))
			publishLeads = false
		} else {
			defer kafka_client.CloseKafkaProducer()
		}
	}

	videos, err := ingest.ExtractCommentsByVideoID(*filePath)
	if err != nil {
		slog.Error("Failed to read workbook", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	buffer := utils.NewBatchBuffer[videoResult]()
	var report []videoResult

	for _, video := range videos {
		if ctx.Err() != nil {
			slog.Warn("Interrupted, writing partial report")
			break
		}

		start := time.Now()
		videoInfo := video.VideoInfo()

		result, err := extractor.ExtractHighIntent(ctx, videoInfo, video.Comments, *commentNum)
		if err != nil {
			// Offline runs mirror the API contract: a failed video
			// yields an empty entry, not an aborted batch.
			slog.Error("Extraction failed for video",
				slog.String("video_id", video.VideoID),
				slog.String("error", err.Error()))
			result = nil
		}

		buffer.Add(videoResult{
			VideoID:            video.VideoID,
			VideoInfo:          videoInfo,
			CommentCount:       len(video.Comments),
			HighIntentComments: result,
		})
		if buffer.Size() >= reportFlushSize {
			report = append(report, flush(buffer, publishLeads)...)
		}

		slog.Info("Finished video",
			slog.String("video_id", video.VideoID),
			slog.Int("high_intent", len(result)),
			slog.Duration("elapsed", time.Since(start)))
	}
	report = append(report, flush(buffer, publishLeads)...)

	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		slog.Error("Failed to serialize report", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := os.WriteFile(*outPath, raw, 0o644); err != nil {
		slog.Error("Failed to write report", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Report written",
		slog.String("path", *outPath),
		slog.Int("videos", len(report)))
}

// flush drains the buffer into the report and, when enabled, publishes
// each non-empty result as a lead event.
func flush(buffer *utils.BatchBuffer[videoResult], publishLeads bool) []videoResult {
	batch := buffer.GetAndClear()
	if !publishLeads {
		return batch
	}

	for _, r := range batch {
		if len(r.HighIntentComments) == 0 {
			continue
		}
		uids := make([]string, 0, len(r.HighIntentComments))
		for _, c := range r.HighIntentComments {
			uids = append(uids, c.UID)
		}
		event := models.HighIntentLeadEvent{
			Digest:      clients.ExtractionDigest(r.VideoInfo, uids, len(r.HighIntentComments)),
			VideoInfo:   r.VideoInfo,
			Comments:    r.HighIntentComments,
			ExtractedAt: time.Now().UTC(),
		}
		if err := kafka_client.PublishHighIntentLeads(event); err != nil {
			slog.Warn("Failed to publish lead event",
				slog.String("video_id", r.VideoID),
				slog.String("error", err.Error()))
		}
	}
	return batch
}
