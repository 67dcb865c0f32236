package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ModelID(t *testing.T) {
	assert.Equal(t, "openai/gpt-4o", Config{Provider: "openai", Model: "gpt-4o"}.ModelID())
	assert.Equal(t, "xai/grok-2", Config{Provider: "openai", Model: "xai/grok-2"}.ModelID())
}

func TestConfig_Normalize(t *testing.T) {
	cfg, err := Config{Provider: " OpenAI ", Model: "gpt-4o", APIKey: "k"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, "k", cfg.APIKey)

	cfg, err = Config{Provider: "deepseek", Model: "chat", BaseURL: "http://local", Timeout: time.Second, APIKey: "k"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "http://local", cfg.BaseURL)
	assert.Equal(t, time.Second, cfg.Timeout)
}

func TestConfig_NormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unsupported provider", Config{Provider: "mistral", Model: "m"}},
		{"missing model", Config{Provider: "openai"}},
		{"negative retries", Config{Provider: "openai", Model: "m", MaxRetries: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Normalize()
			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, ErrProvider, reqErr.Code)
		})
	}
}

func TestResolveAPIKey(t *testing.T) {
	env := map[string]string{"GOOGLE_API_KEY": "google", "GEMINI_API_KEY": ""}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	assert.Equal(t, "google", ResolveAPIKey("gemini", lookup))
	assert.Empty(t, ResolveAPIKey("openai", lookup))
	assert.Empty(t, ResolveAPIKey("unknown", lookup))

	env["GEMINI_API_KEY"] = "gemini"
	assert.Equal(t, "gemini", ResolveAPIKey("gemini", lookup))
}

func TestProviders(t *testing.T) {
	assert.Equal(t, []string{"anthropic", "deepseek", "gemini", "openai", "qwen", "xai"}, Providers())
}
