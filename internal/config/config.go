package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/caesar/pkg/database"
	"github.com/JaimeStill/caesar/pkg/messaging"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvCaesarEnv             = "CAESAR_ENV"
	EnvCaesarShutdownTimeout = "CAESAR_SHUTDOWN_TIMEOUT"
	EnvCaesarVersion         = "CAESAR_VERSION"
	EnvCaesarAutoMigrate     = "CAESAR_AUTO_MIGRATE"
)

var databaseEnv = &database.Env{
	ConnURL:         "CAESAR_DB_URL",
	Host:            "CAESAR_DB_HOST",
	Port:            "CAESAR_DB_PORT",
	Name:            "CAESAR_DB_NAME",
	User:            "CAESAR_DB_USER",
	Password:        "CAESAR_DB_PASSWORD",
	SSLMode:         "CAESAR_DB_SSL_MODE",
	MaxOpenConns:    "CAESAR_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "CAESAR_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "CAESAR_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "CAESAR_DB_CONN_TIMEOUT",
}

var messagingEnv = &messaging.Env{
	Enabled:       "CAESAR_NATS_ENABLED",
	URL:           "CAESAR_NATS_URL",
	Name:          "CAESAR_NATS_NAME",
	Stream:        "CAESAR_NATS_STREAM",
	SubjectPrefix: "CAESAR_NATS_SUBJECT_PREFIX",
	Durable:       "CAESAR_NATS_DURABLE",
	Workers:       "CAESAR_NATS_WORKERS",
	FetchBatch:    "CAESAR_NATS_FETCH_BATCH",
	FetchWait:     "CAESAR_NATS_FETCH_WAIT",
	AckWait:       "CAESAR_NATS_ACK_WAIT",
	NakDelay:      "CAESAR_NATS_NAK_DELAY",
	MaxDeliver:    "CAESAR_NATS_MAX_DELIVER",
	RateLimit:     "CAESAR_NATS_RATE_LIMIT",
	RateBurst:     "CAESAR_NATS_RATE_BURST",
	ConnTimeout:   "CAESAR_NATS_CONN_TIMEOUT",
}

// Config is the root configuration for the Caesar service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Messaging       messaging.Config `toml:"messaging"`
	Pipeline        PipelineConfig   `toml:"pipeline"`
	API             APIConfig        `toml:"api"`
	AutoMigrate     bool             `toml:"auto_migrate"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the CAESAR_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCaesarEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Parse decodes TOML into a Config without finalizing it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.AutoMigrate {
		c.AutoMigrate = true
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Messaging.Merge(&overlay.Messaging)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.API.Merge(&overlay.API)
}

// Finalize applies defaults, environment overrides, and validation to every section.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Messaging.Finalize(messagingEnv); err != nil {
		return fmt.Errorf("messaging: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvCaesarShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvCaesarVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvCaesarAutoMigrate); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AutoMigrate = b
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func overlayPath() string {
	if env := os.Getenv(EnvCaesarEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
