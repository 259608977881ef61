package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/intentflow/intentflow/internal/metrics"
	"github.com/intentflow/intentflow/internal/models"
)

const llmRequestTimeout = 60 * time.Second

var (
	ErrInvalidMessage   = errors.New("invalid message")
	ErrEmptyResponse    = errors.New("empty response from llm")
	ErrSchemaValidation = errors.New("structured response failed validation")
)

// StructuredOutput is implemented by response types that can describe
// their required JSON shape and check a parsed response against it.
type StructuredOutput interface {
	SchemaPrompt() string
	Validate() error
}

// Client issues chat-completion requests against an OpenAI-compatible
// endpoint. It holds only immutable connection settings, so one client
// may serve concurrent callers.
type Client struct {
	settings Settings
	api      *openai.Client
}

func NewClient(s Settings) (*Client, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	var cfg openai.ClientConfig
	switch s.APIType {
	case APITypeAzure:
		cfg = openai.DefaultAzureConfig(s.APIKey, s.BaseURL)
		if s.APIVersion != "" {
			cfg.APIVersion = s.APIVersion
		}
		cfg.HTTPClient = &http.Client{Timeout: llmRequestTimeout}
	case APITypeGateway:
		oauthConf := &clientcredentials.Config{
			ClientID:     s.GatewayClientID,
			ClientSecret: s.GatewayClientSecret,
			TokenURL:     s.GatewayTokenURL,
		}
		httpClient := oauthConf.Client(context.Background())
		httpClient.Timeout = llmRequestTimeout
		cfg = openai.DefaultConfig("")
		cfg.BaseURL = s.BaseURL
		cfg.HTTPClient = httpClient
	default:
		cfg = openai.DefaultConfig(s.APIKey)
		if s.BaseURL != "" {
			cfg.BaseURL = s.BaseURL
		}
		cfg.HTTPClient = &http.Client{Timeout: llmRequestTimeout}
	}

	slog.Info("[LLM] Client initialized",
		slog.String("model", s.Model),
		slog.String("api_type", s.APIType))

	return &Client{settings: s, api: openai.NewClientWithConfig(cfg)}, nil
}

// FormatMessages converts typed messages to the SDK's wire structs,
// validating the merged final list. A structurally invalid message
// anywhere aborts the whole call before any network request.
func FormatMessages(messages []models.Message) ([]openai.ChatCompletionMessage, error) {
	formatted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for i, msg := range messages {
		if msg.Role == "" {
			return nil, fmt.Errorf("%w: message %d has no role", ErrInvalidMessage, i)
		}
		if !msg.Role.Valid() {
			return nil, fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidMessage, i, msg.Role)
		}
		if msg.Content == "" && len(msg.ToolCalls) == 0 {
			return nil, fmt.Errorf("%w: message %d has neither content nor tool_calls", ErrInvalidMessage, i)
		}

		out := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		formatted = append(formatted, out)
	}
	return formatted, nil
}

// Ask sends the conversation and returns the assistant's text. System
// messages, if given, are prepended before formatting. Transport errors
// are retried per the configured policy; a response that is empty after
// trimming is an error.
func (c *Client) Ask(ctx context.Context, messages, systemMsgs []models.Message, stream bool, temperature float32) (string, error) {
	formatted, err := FormatMessages(mergeMessages(systemMsgs, messages))
	if err != nil {
		slog.Error("[LLM] Message validation failed", slog.String("error", err.Error()))
		return "", err
	}

	var out string
	err = c.withRetry(ctx, "ask", func() error {
		var askErr error
		if stream {
			out, askErr = c.askStream(ctx, formatted, temperature)
		} else {
			out, askErr = c.askOnce(ctx, formatted, temperature)
		}
		return askErr
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func (c *Client) askOnce(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.settings.Model,
		Messages:    messages,
		MaxTokens:   c.settings.MaxTokens,
		Temperature: c.resolveTemperature(temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) askStream(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32) (string, error) {
	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       c.settings.Model,
		Messages:    messages,
		MaxTokens:   c.settings.MaxTokens,
		Temperature: c.resolveTemperature(temperature),
		Stream:      true,
	})
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if len(chunk.Choices) > 0 {
			sb.WriteString(chunk.Choices[0].Delta.Content)
		}
	}

	full := strings.TrimSpace(sb.String())
	if full == "" {
		return "", ErrEmptyResponse
	}
	return full, nil
}

// AskStructured requests a JSON-object-constrained completion and
// parses it into out. The schema description is appended to a copy of
// the final formatted message; caller slices are never mutated. Parse
// and schema failures are terminal, transport failures retry.
func (c *Client) AskStructured(ctx context.Context, messages, systemMsgs []models.Message, out StructuredOutput, temperature float32) error {
	formatted, err := FormatMessages(mergeMessages(systemMsgs, messages))
	if err != nil {
		slog.Error("[LLM] Message validation failed", slog.String("error", err.Error()))
		return err
	}
	formatted = appendSchemaPrompt(formatted, out.SchemaPrompt())

	var raw string
	err = c.withRetry(ctx, "ask_structured", func() error {
		resp, reqErr := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.settings.Model,
			Messages:    formatted,
			MaxTokens:   c.settings.MaxTokens,
			Temperature: c.resolveTemperature(temperature),
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if reqErr != nil {
			return reqErr
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return ErrEmptyResponse
		}
		raw = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return err
	}

	cleaned := cleanJSONResponse(raw)
	if cleaned == "" {
		return fmt.Errorf("structured response is not a JSON object")
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		slog.Error("[LLM] Failed to parse structured response",
			slog.String("error", err.Error()),
			slog.String("raw_response", snippet(raw)))
		return fmt.Errorf("parse structured response: %w", err)
	}
	if err := out.Validate(); err != nil {
		slog.Error("[LLM] Structured response failed schema validation",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	return nil
}

// Ping verifies the endpoint is reachable and the credential accepted.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := c.api.ListModels(ctx)
	return err
}

func (c *Client) resolveTemperature(temperature float32) float32 {
	if temperature > 0 {
		return temperature
	}
	return c.settings.Temperature
}

func mergeMessages(systemMsgs, messages []models.Message) []models.Message {
	merged := make([]models.Message, 0, len(systemMsgs)+len(messages))
	merged = append(merged, systemMsgs...)
	merged = append(merged, messages...)
	return merged
}

// appendSchemaPrompt returns a new message list whose final message
// carries the schema description. The input slice and its messages are
// left untouched so callers may reuse them across calls.
func appendSchemaPrompt(messages []openai.ChatCompletionMessage, schema string) []openai.ChatCompletionMessage {
	if len(messages) == 0 {
		return messages
	}
	out := make([]openai.ChatCompletionMessage, len(messages))
	copy(out, messages)
	last := out[len(out)-1]
	last.Content += "\n\nThe response must be a JSON object matching this schema:\n" + schema
	out[len(out)-1] = last
	return out
}

func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= c.settings.RetryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			slog.Error("[LLM] Request failed",
				slog.String("op", op),
				slog.String("error", lastErr.Error()))
			return lastErr
		}
		if attempt == c.settings.RetryAttempts {
			break
		}

		delay := backoffDelay(attempt, c.settings.minBackoff(), c.settings.maxBackoff())
		metrics.LLMRetriesTotal.Inc()
		slog.Warn("[LLM] Request failed, retrying...",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.String("error", lastErr.Error()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	slog.Error("[LLM] Retries exhausted",
		slog.String("op", op),
		slog.Int("attempts", c.settings.RetryAttempts),
		slog.String("error", lastErr.Error()))
	return lastErr
}

// isRetryable classifies errors for the retry loop: rate limits,
// server-side failures and network errors retry; malformed messages,
// rejected requests and schema failures do not.
func isRetryable(err error) bool {
	if errors.Is(err, ErrInvalidMessage) || errors.Is(err, ErrSchemaValidation) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode == http.StatusRequestTimeout ||
			apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	// Transport-level failures and empty responses are worth another try.
	return true
}

// backoffDelay picks a random delay under an exponentially growing,
// capped ceiling. A non-positive ceiling means no delay; settings
// validation keeps such configs out of production clients.
func backoffDelay(attempt int, floor, limit time.Duration) time.Duration {
	ceiling := floor << (attempt - 1)
	if ceiling > limit || ceiling <= 0 {
		ceiling = limit
	}
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(ceiling)))
}

// cleanJSONResponse strips markdown code fences some models wrap around
// JSON payloads and checks the remainder looks like an object.
func cleanJSONResponse(response string) string {
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "\n")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimPrefix(cleaned, "\n")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	cleaned = strings.TrimSpace(cleaned)

	if !strings.HasPrefix(cleaned, "{") || !strings.HasSuffix(cleaned, "}") {
		return ""
	}
	return cleaned
}

func snippet(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
