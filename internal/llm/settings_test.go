package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSettings(t *testing.T) {
	path := writeConfig(t, `
[llm]
model = "gpt-4o-mini"
base_url = "https://api.example.com/v1"
api_key = "sk-test"
max_tokens = 2048
temperature = 0.7
api_type = "openai"
`)

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", s.Model)
	assert.Equal(t, "sk-test", s.APIKey)
	assert.Equal(t, 2048, s.MaxTokens)
	assert.InDelta(t, 0.7, float64(s.Temperature), 0.0001)
	// Retry defaults apply when the file is silent.
	assert.Equal(t, 6, s.RetryAttempts)
	assert.Equal(t, 1, s.RetryMinBackoffSeconds)
	assert.Equal(t, 60, s.RetryMaxBackoffSeconds)
}

func TestLoadSettingsEnvOverride(t *testing.T) {
	path := writeConfig(t, `
[llm]
model = "file-model"
api_key = "file-key"
api_type = "openai"
`)

	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("LLM_API_KEY", "env-key")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "env-model", s.Model)
	assert.Equal(t, "env-key", s.APIKey)
}

func TestLoadSettingsMissingModel(t *testing.T) {
	path := writeConfig(t, `
[llm]
api_key = "sk-test"
api_type = "openai"
`)

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestLoadSettingsGatewayRequiresCredentials(t *testing.T) {
	path := writeConfig(t, `
[llm]
model = "gpt-4o-mini"
base_url = "https://gateway.internal/v1"
api_type = "gateway"
`)

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestLoadSettingsRejectsBadBackoffBounds(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero max backoff", `
[llm]
model = "gpt-4o-mini"
api_key = "sk-test"
api_type = "openai"
retry_max_backoff_seconds = 0
`},
		{"negative min backoff", `
[llm]
model = "gpt-4o-mini"
api_key = "sk-test"
api_type = "openai"
retry_min_backoff_seconds = -1
`},
		{"min above max", `
[llm]
model = "gpt-4o-mini"
api_key = "sk-test"
api_type = "openai"
retry_min_backoff_seconds = 30
retry_max_backoff_seconds = 5
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadSettingsUnknownAPIType(t *testing.T) {
	path := writeConfig(t, `
[llm]
model = "gpt-4o-mini"
api_key = "sk-test"
api_type = "vertex"
`)

	_, err := LoadSettings(path)
	assert.Error(t, err)
}
