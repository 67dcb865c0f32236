package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/geometrix/internal/llm"
	"github.com/roach88/geometrix/internal/transport"
)

// Config is the optional YAML configuration file.
//
//	llm:
//	  provider: openai
//	  model: gpt-4o-mini
//	  timeout: 45s
//	  max_retries: 2
//	render:
//	  default_res: 64
//	  display: png
//	  preview_path: out/preview.png
//	store:
//	  path: geometrix.db
type Config struct {
	LLM    llm.Config   `yaml:"llm"`
	Render RenderConfig `yaml:"render"`
	Store  StoreConfig  `yaml:"store"`
}

// RenderConfig holds render defaults. Flags override them.
type RenderConfig struct {
	DefaultRes  int    `yaml:"default_res"`  // 0 selects engine.DefaultResolution
	Display     string `yaml:"display"`      // none, json or png
	PreviewPath string `yaml:"preview_path"` // output file for json and png
}

// StoreConfig locates the render history database.
type StoreConfig struct {
	Path string `yaml:"path"` // empty disables history
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{Display: transport.DisplayNone},
	}
}

// LoadConfig reads a config file over the defaults. An empty path returns
// the defaults. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Render.DefaultRes != 0 && c.Render.DefaultRes < 2 {
		return fmt.Errorf("render.default_res must be > 1, got %d", c.Render.DefaultRes)
	}
	switch c.Render.Display {
	case "":
		c.Render.Display = transport.DisplayNone
	case transport.DisplayNone, transport.DisplayJSON, transport.DisplayPreview:
	default:
		return fmt.Errorf("render.display %q must be none, json or png", c.Render.Display)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must be >= 0, got %d", c.LLM.MaxRetries)
	}
	return nil
}
