package wirecmp

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the engine's configuration surface. Zero values are
// filled in by defaults; load one from YAML with LoadConfig or construct
// it directly.
type Config struct {
	// SecretKey signs snapshot checksums and the flash cookie. Required in
	// production; a random key per process means snapshots do not survive
	// restarts.
	SecretKey string `yaml:"secret_key"`

	// Layout names the outer view components render into.
	Layout string `yaml:"layout"`

	// InjectAssets controls whether buffered scripts/assets are spliced
	// into the response.
	InjectAssets bool `yaml:"inject_assets"`

	// RenderOnRedirect keeps rendering components whose batch produced a
	// redirect. Off by default: the client navigates away anyway.
	RenderOnRedirect bool `yaml:"render_on_redirect"`

	// ComponentPlaceholder is the HTML shown for lazy components until
	// activation.
	ComponentPlaceholder string `yaml:"component_placeholder"`

	// MaxCalls bounds method calls per component per request.
	MaxCalls int `yaml:"max_calls"`
	// MaxSize bounds the request payload in bytes.
	MaxSize int `yaml:"max_size"`
	// MaxComponents bounds components per batch.
	MaxComponents int `yaml:"max_components"`

	// Logger for engine diagnostics.
	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxCalls <= 0 {
		c.MaxCalls = 10
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 1 << 20
	}
	if c.MaxComponents <= 0 {
		c.MaxComponents = 25
	}
	if c.ComponentPlaceholder == "" {
		c.ComponentPlaceholder = `<div data-wirecmp-placeholder></div>`
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("wirecmp: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("wirecmp: parse config: %w", err)
	}
	cfg.defaults()
	return cfg, nil
}
