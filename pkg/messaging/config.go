package messaging

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds NATS connection and JetStream consumer parameters.
type Config struct {
	Enabled       bool    `toml:"enabled"`
	URL           string  `toml:"url"`
	Name          string  `toml:"name"`
	Stream        string  `toml:"stream"`
	SubjectPrefix string  `toml:"subject_prefix"`
	Durable       string  `toml:"durable"`
	Workers       int     `toml:"workers"`
	FetchBatch    int     `toml:"fetch_batch"`
	FetchWait     string  `toml:"fetch_wait"`
	AckWait       string  `toml:"ack_wait"`
	NakDelay      string  `toml:"nak_delay"`
	MaxDeliver    int     `toml:"max_deliver"`
	RateLimit     float64 `toml:"rate_limit"`
	RateBurst     int     `toml:"rate_burst"`
	ConnTimeout   string  `toml:"conn_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled       string
	URL           string
	Name          string
	Stream        string
	SubjectPrefix string
	Durable       string
	Workers       string
	FetchBatch    string
	FetchWait     string
	AckWait       string
	NakDelay      string
	MaxDeliver    string
	RateLimit     string
	RateBurst     string
	ConnTimeout   string
}

// Subject joins tokens onto the configured subject prefix.
func (c *Config) Subject(tokens ...string) string {
	return strings.Join(append([]string{c.SubjectPrefix}, tokens...), ".")
}

// FetchWaitDuration returns FetchWait as a time.Duration.
func (c *Config) FetchWaitDuration() time.Duration {
	d, _ := time.ParseDuration(c.FetchWait)
	return d
}

// AckWaitDuration returns AckWait as a time.Duration.
func (c *Config) AckWaitDuration() time.Duration {
	d, _ := time.ParseDuration(c.AckWait)
	return d
}

// NakDelayDuration returns NakDelay as a time.Duration.
func (c *Config) NakDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.NakDelay)
	return d
}

// ConnTimeoutDuration returns ConnTimeout as a time.Duration.
func (c *Config) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
// Enabled can only be switched on by an overlay; use the environment to switch it off.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.Stream != "" {
		c.Stream = overlay.Stream
	}
	if overlay.SubjectPrefix != "" {
		c.SubjectPrefix = overlay.SubjectPrefix
	}
	if overlay.Durable != "" {
		c.Durable = overlay.Durable
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.FetchBatch != 0 {
		c.FetchBatch = overlay.FetchBatch
	}
	if overlay.FetchWait != "" {
		c.FetchWait = overlay.FetchWait
	}
	if overlay.AckWait != "" {
		c.AckWait = overlay.AckWait
	}
	if overlay.NakDelay != "" {
		c.NakDelay = overlay.NakDelay
	}
	if overlay.MaxDeliver != 0 {
		c.MaxDeliver = overlay.MaxDeliver
	}
	if overlay.RateLimit != 0 {
		c.RateLimit = overlay.RateLimit
	}
	if overlay.RateBurst != 0 {
		c.RateBurst = overlay.RateBurst
	}
	if overlay.ConnTimeout != "" {
		c.ConnTimeout = overlay.ConnTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.URL == "" {
		c.URL = "nats://localhost:4222"
	}
	if c.Name == "" {
		c.Name = "caesar"
	}
	if c.Stream == "" {
		c.Stream = "CAESAR"
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "caesar"
	}
	if c.Durable == "" {
		c.Durable = "caesar-pipeline"
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.FetchBatch == 0 {
		c.FetchBatch = 16
	}
	if c.FetchWait == "" {
		c.FetchWait = "2s"
	}
	if c.AckWait == "" {
		c.AckWait = "30s"
	}
	if c.NakDelay == "" {
		c.NakDelay = "5s"
	}
	if c.MaxDeliver == 0 {
		c.MaxDeliver = 10
	}
	if c.RateBurst == 0 {
		c.RateBurst = 1
	}
	if c.ConnTimeout == "" {
		c.ConnTimeout = "5s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = b
			}
		}
	}
	if env.URL != "" {
		if v := os.Getenv(env.URL); v != "" {
			c.URL = v
		}
	}
	if env.Name != "" {
		if v := os.Getenv(env.Name); v != "" {
			c.Name = v
		}
	}
	if env.Stream != "" {
		if v := os.Getenv(env.Stream); v != "" {
			c.Stream = v
		}
	}
	if env.SubjectPrefix != "" {
		if v := os.Getenv(env.SubjectPrefix); v != "" {
			c.SubjectPrefix = v
		}
	}
	if env.Durable != "" {
		if v := os.Getenv(env.Durable); v != "" {
			c.Durable = v
		}
	}
	if env.Workers != "" {
		if v := os.Getenv(env.Workers); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Workers = n
			}
		}
	}
	if env.FetchBatch != "" {
		if v := os.Getenv(env.FetchBatch); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.FetchBatch = n
			}
		}
	}
	if env.FetchWait != "" {
		if v := os.Getenv(env.FetchWait); v != "" {
			c.FetchWait = v
		}
	}
	if env.AckWait != "" {
		if v := os.Getenv(env.AckWait); v != "" {
			c.AckWait = v
		}
	}
	if env.NakDelay != "" {
		if v := os.Getenv(env.NakDelay); v != "" {
			c.NakDelay = v
		}
	}
	if env.MaxDeliver != "" {
		if v := os.Getenv(env.MaxDeliver); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxDeliver = n
			}
		}
	}
	if env.RateLimit != "" {
		if v := os.Getenv(env.RateLimit); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.RateLimit = f
			}
		}
	}
	if env.RateBurst != "" {
		if v := os.Getenv(env.RateBurst); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.RateBurst = n
			}
		}
	}
	if env.ConnTimeout != "" {
		if v := os.Getenv(env.ConnTimeout); v != "" {
			c.ConnTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	if c.FetchBatch < 1 {
		return fmt.Errorf("fetch_batch must be positive: %d", c.FetchBatch)
	}
	if c.MaxDeliver < 1 {
		return fmt.Errorf("max_deliver must be positive: %d", c.MaxDeliver)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative: %v", c.RateLimit)
	}
	if strings.ContainsAny(c.SubjectPrefix, " *>") {
		return fmt.Errorf("invalid subject_prefix: %q", c.SubjectPrefix)
	}
	for name, v := range map[string]string{
		"fetch_wait":   c.FetchWait,
		"ack_wait":     c.AckWait,
		"nak_delay":    c.NakDelay,
		"conn_timeout": c.ConnTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}
