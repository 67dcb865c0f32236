package llm

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"
)

// DefaultTimeout bounds a single provider request.
const DefaultTimeout = 30 * time.Second

// ProviderEnvKeys lists, per provider, the environment variables checked
// for an API key in order.
var ProviderEnvKeys = map[string][]string{
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"xai":       {"XAI_API_KEY"},
	"qwen":      {"QWEN_API_KEY", "DASHSCOPE_API_KEY"},
	"deepseek":  {"DEEPSEEK_API_KEY"},
}

// providerBaseURLs are the OpenAI-compatible endpoints of each provider.
var providerBaseURLs = map[string]string{
	"openai":    "https://api.openai.com/v1",
	"anthropic": "https://api.anthropic.com/v1",
	"gemini":    "https://generativelanguage.googleapis.com/v1beta/openai",
	"xai":       "https://api.x.ai/v1",
	"qwen":      "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"deepseek":  "https://api.deepseek.com/v1",
}

// jsonModeProviders accept response_format {"type": "json_object"}.
var jsonModeProviders = []string{"openai", "xai"}

// Config selects a provider and model.
type Config struct {
	Provider   string        `yaml:"provider"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"-"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// Providers returns the supported provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(ProviderEnvKeys))
	for p := range ProviderEnvKeys {
		names = append(names, p)
	}
	slices.Sort(names)
	return names
}

// Normalize lowercases the provider and fills defaults. It fails for an
// unsupported provider or a missing model.
func (c Config) Normalize() (Config, error) {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if _, ok := ProviderEnvKeys[c.Provider]; !ok {
		return c, &RequestError{Code: ErrProvider, Provider: c.Provider, Err: fmt.Errorf("unsupported provider (want one of %s)", strings.Join(Providers(), ", "))}
	}
	if c.Model == "" {
		return c, &RequestError{Code: ErrProvider, Provider: c.Provider, Err: fmt.Errorf("model is required")}
	}
	if c.MaxRetries < 0 {
		return c, &RequestError{Code: ErrProvider, Provider: c.Provider, Err: fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries)}
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.BaseURL == "" {
		c.BaseURL = providerBaseURLs[c.Provider]
	}
	if c.APIKey == "" {
		c.APIKey = ResolveAPIKey(c.Provider, os.LookupEnv)
	}
	return c, nil
}

// ModelID is "provider/model" unless the model already names a provider.
func (c Config) ModelID() string {
	if strings.Contains(c.Model, "/") {
		return c.Model
	}
	return c.Provider + "/" + c.Model
}

// modelName is the model without a provider prefix matching c.Provider.
func (c Config) modelName() string {
	if name, ok := strings.CutPrefix(c.Model, c.Provider+"/"); ok {
		return name
	}
	return c.Model
}

// ResolveAPIKey returns the first non-empty environment value listed for
// provider.
func ResolveAPIKey(provider string, lookup func(string) (string, bool)) string {
	for _, key := range ProviderEnvKeys[provider] {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
	}
	return ""
}
