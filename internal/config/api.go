package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvAPIBasePath     = "CAESAR_API_BASE_PATH"
	EnvAPIMaxBodyBytes = "CAESAR_API_MAX_BODY_BYTES"
	EnvAPIMetricsPath  = "CAESAR_API_METRICS_PATH"
)

// APIConfig holds API routing and request limits.
type APIConfig struct {
	BasePath     string `toml:"base_path"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
	MetricsPath  string `toml:"metrics_path"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodyBytes != 0 {
		c.MaxBodyBytes = overlay.MaxBodyBytes
	}
	if overlay.MetricsPath != "" {
		c.MetricsPath = overlay.MetricsPath
	}
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.MetricsPath == "" {
		c.MetricsPath = "/metrics"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxBodyBytes); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxBodyBytes = n
		}
	}
	if v := os.Getenv(EnvAPIMetricsPath); v != "" {
		c.MetricsPath = v
	}
}

func (c *APIConfig) validate() error {
	if c.MaxBodyBytes < 1 {
		return fmt.Errorf("max_body_bytes must be positive: %d", c.MaxBodyBytes)
	}
	if c.MetricsPath[0] != '/' {
		return fmt.Errorf("metrics_path must start with /: %s", c.MetricsPath)
	}
	return nil
}
