package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ServerEnv holds the environment overrides honored by `serve`.
type ServerEnv struct {
	HTTPAddr    string `env:"INSIGHTIGRAPH_HTTP_ADDR"`
	MaxUploadMB int    `env:"INSIGHTIGRAPH_MAX_UPLOAD_MB"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Apply overrides c with every value set in e.
func (e ServerEnv) Apply(c *Global) {
	if e.HTTPAddr != "" {
		c.HTTPAddr = e.HTTPAddr
	}
	if e.MaxUploadMB > 0 {
		c.MaxUploadMB = e.MaxUploadMB
	}
}
