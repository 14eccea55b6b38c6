package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/caesar/pkg/retry"
)

const (
	EnvPipelineConflictAttempts = "CAESAR_PIPELINE_CONFLICT_ATTEMPTS"
	EnvPipelineConflictBackoff  = "CAESAR_PIPELINE_CONFLICT_BACKOFF"
)

// PipelineConfig bounds how the pipeline retries upserts that lose a write race.
type PipelineConfig struct {
	ConflictAttempts int    `toml:"conflict_attempts"`
	ConflictBackoff  string `toml:"conflict_backoff"`
}

// ConflictBackoffDuration returns ConflictBackoff as a time.Duration.
func (c *PipelineConfig) ConflictBackoffDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConflictBackoff)
	return d
}

// RetryPolicy returns the attempt and backoff bounds. The pipeline supplies
// the conflict predicate per stage.
func (c *PipelineConfig) RetryPolicy() retry.Policy {
	return retry.Policy{
		Attempts: c.ConflictAttempts,
		Backoff:  c.ConflictBackoffDuration(),
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.ConflictAttempts != 0 {
		c.ConflictAttempts = overlay.ConflictAttempts
	}
	if overlay.ConflictBackoff != "" {
		c.ConflictBackoff = overlay.ConflictBackoff
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.ConflictAttempts == 0 {
		c.ConflictAttempts = 2
	}
	if c.ConflictBackoff == "" {
		c.ConflictBackoff = "2s"
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineConflictAttempts); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ConflictAttempts = n
		}
	}
	if v := os.Getenv(EnvPipelineConflictBackoff); v != "" {
		c.ConflictBackoff = v
	}
}

func (c *PipelineConfig) validate() error {
	if c.ConflictAttempts < 1 {
		return fmt.Errorf("conflict_attempts must be positive: %d", c.ConflictAttempts)
	}
	d, err := time.ParseDuration(c.ConflictBackoff)
	if err != nil {
		return fmt.Errorf("invalid conflict_backoff: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("conflict_backoff must not be negative: %s", c.ConflictBackoff)
	}
	return nil
}
