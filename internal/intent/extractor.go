package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/intentflow/intentflow/internal/llm"
	"github.com/intentflow/intentflow/internal/metrics"
	"github.com/intentflow/intentflow/internal/models"
	"github.com/intentflow/intentflow/internal/preprocess"
	"github.com/intentflow/intentflow/internal/sentiment"
)

// StructuredLLM is the slice of the LLM client the extractor needs;
// tests substitute a fake.
type StructuredLLM interface {
	AskStructured(ctx context.Context, messages, systemMsgs []models.Message, out llm.StructuredOutput, temperature float32) error
}

// Extractor runs the high-intent pipeline: filter the batch, ask the
// LLM for a schema-constrained pick, and keep only candidates whose UID
// validates against the input batch.
type Extractor struct {
	llm StructuredLLM
}

func NewExtractor(client StructuredLLM) *Extractor {
	return &Extractor{llm: client}
}

// ExtractHighIntent returns the comments the LLM judged high-intent, in
// the order the LLM emitted them. A too-small filtered batch returns an
// empty result without calling the LLM. LLM failures are returned to
// the caller; the outermost boundary decides how to degrade.
func (e *Extractor) ExtractHighIntent(ctx context.Context, videoInfo string, comments []models.Comment, requested int) ([]models.Comment, error) {
	filtered := preprocess.FilterComments(comments)
	slog.Info("[IntentExtractor] Filtered comment batch",
		slog.Int("before", len(comments)),
		slog.Int("after", len(filtered)))

	lookup := make(map[string]models.Comment, len(filtered))
	for _, c := range filtered {
		lookup[c.UID] = c
	}

	effective := clampRequested(requested, len(filtered))
	if effective <= 0 {
		slog.Info("[IntentExtractor] Too few usable comments, skipping LLM call",
			slog.Int("filtered", len(filtered)),
			slog.Int("requested", requested))
		metrics.ExtractionsTotal.WithLabelValues("skipped").Inc()
		return nil, nil
	}

	annotated := sentiment.AnnotateComments(filtered)
	serialized, err := json.MarshalIndent(annotated, "", "  ")
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("serialize comment list: %w", err)
	}

	messages := []models.Message{
		models.UserMessage(userPrompt(videoInfo, string(serialized))),
	}
	systemMsgs := []models.Message{
		models.SystemMessage(systemPrompt(effective)),
	}

	var response models.HighIntentCommentList
	if err := e.llm.AskStructured(ctx, messages, systemMsgs, &response, 0); err != nil {
		metrics.ExtractionsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("high intent extraction: %w", err)
	}

	result := make([]models.Comment, 0, len(response.HighIntentComments))
	for _, candidate := range response.HighIntentComments {
		if !preprocess.IsValidUID(candidate.UID) {
			slog.Warn("[IntentExtractor] Dropping candidate with invalid uid",
				slog.String("uid", candidate.UID))
			metrics.CandidatesDroppedTotal.WithLabelValues("invalid_uid").Inc()
			continue
		}
		matched, ok := lookup[candidate.UID]
		if !ok {
			slog.Warn("[IntentExtractor] Dropping candidate not present in batch",
				slog.String("uid", candidate.UID))
			metrics.CandidatesDroppedTotal.WithLabelValues("unknown_uid").Inc()
			continue
		}
		slog.Debug("[IntentExtractor] Accepted high-intent comment",
			slog.String("uid", candidate.UID),
			slog.String("reason", candidate.Reason))
		result = append(result, matched)
	}

	slog.Info("[IntentExtractor] Extraction finished",
		slog.Int("returned_by_llm", len(response.HighIntentComments)),
		slog.Int("accepted", len(result)))
	metrics.ExtractionsTotal.WithLabelValues("ok").Inc()
	return result, nil
}

// clampRequested caps the ask at half the filtered batch so the LLM is
// never asked to call most of the batch high-intent.
func clampRequested(requested, filteredCount int) int {
	half := filteredCount / 2
	if requested < half {
		return requested
	}
	return half
}
