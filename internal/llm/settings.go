package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	APITypeOpenAI  = "openai"
	APITypeAzure   = "azure"
	APITypeGateway = "gateway"
)

// Settings holds the connection and request configuration for the LLM
// client. Loaded once at startup and never mutated afterwards, so a
// single value is safe to share across goroutines.
type Settings struct {
	Model       string  `toml:"model"`
	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
	APIType     string  `toml:"api_type"`
	APIVersion  string  `toml:"api_version"`

	// Gateway flavor: tokens are minted through an OAuth2
	// client-credentials grant instead of a static API key.
	GatewayClientID     string `toml:"gateway_client_id"`
	GatewayClientSecret string `toml:"gateway_client_secret"`
	GatewayTokenURL     string `toml:"gateway_token_url"`

	RetryAttempts          int `toml:"retry_attempts"`
	RetryMinBackoffSeconds int `toml:"retry_min_backoff_seconds"`
	RetryMaxBackoffSeconds int `toml:"retry_max_backoff_seconds"`
}

func (s Settings) minBackoff() time.Duration {
	return time.Duration(s.RetryMinBackoffSeconds) * time.Second
}

func (s Settings) maxBackoff() time.Duration {
	return time.Duration(s.RetryMaxBackoffSeconds) * time.Second
}

func defaultSettings() Settings {
	return Settings{
		MaxTokens:              4096,
		Temperature:            1.0,
		APIType:                APITypeOpenAI,
		RetryAttempts:          6,
		RetryMinBackoffSeconds: 1,
		RetryMaxBackoffSeconds: 60,
	}
}

// LoadSettings reads the [llm] table from a TOML file and applies
// environment overrides for the fields that usually live outside the
// repo (credentials, endpoint, model).
func LoadSettings(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read llm config: %w", err)
	}

	var file struct {
		LLM Settings `toml:"llm"`
	}
	file.LLM = defaultSettings()
	if err := toml.Unmarshal(raw, &file); err != nil {
		return Settings{}, fmt.Errorf("parse llm config: %w", err)
	}

	s := file.LLM
	if v := os.Getenv("LLM_MODEL"); v != "" {
		s.Model = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		s.BaseURL = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		s.APIKey = v
	}

	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) validate() error {
	if s.Model == "" {
		return fmt.Errorf("llm config: model is required")
	}
	switch s.APIType {
	case APITypeOpenAI:
		if s.APIKey == "" {
			return fmt.Errorf("llm config: api_key is required")
		}
	case APITypeAzure:
		if s.APIKey == "" || s.BaseURL == "" {
			return fmt.Errorf("llm config: azure flavor requires api_key and base_url")
		}
	case APITypeGateway:
		if s.GatewayClientID == "" || s.GatewayClientSecret == "" || s.GatewayTokenURL == "" {
			return fmt.Errorf("llm config: gateway flavor requires client id, secret and token url")
		}
		if s.BaseURL == "" {
			return fmt.Errorf("llm config: gateway flavor requires base_url")
		}
	default:
		return fmt.Errorf("llm config: unknown api_type %q", s.APIType)
	}
	if s.RetryAttempts < 1 {
		return fmt.Errorf("llm config: retry_attempts must be at least 1")
	}
	if s.RetryMinBackoffSeconds < 1 || s.RetryMaxBackoffSeconds < 1 {
		return fmt.Errorf("llm config: retry backoff bounds must be at least 1 second")
	}
	if s.RetryMinBackoffSeconds > s.RetryMaxBackoffSeconds {
		return fmt.Errorf("llm config: retry_min_backoff_seconds exceeds retry_max_backoff_seconds")
	}
	return nil
}
