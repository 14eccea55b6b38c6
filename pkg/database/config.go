package database

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds PostgreSQL connection parameters.
// ConnURL, when set, replaces the individual connection fields.
type Config struct {
	ConnURL         string `toml:"url"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ConnURL         string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    string
	MaxIdleConns    string
	ConnMaxLifetime string
	ConnTimeout     string
}

// ConnMaxLifetimeDuration returns ConnMaxLifetime as a time.Duration.
func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

// ConnTimeoutDuration returns ConnTimeout as a time.Duration.
func (c *Config) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// Dsn returns the connection string handed to the pgx driver.
func (c *Config) Dsn() string {
	if c.ConnURL != "" {
		return c.ConnURL
	}
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Name, c.User, c.Password, c.SSLMode,
	)
}

// URL returns the connection as a postgres:// URL, the form golang-migrate expects.
func (c *Config) URL() string {
	if c.ConnURL != "" {
		return c.ConnURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
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
func (c *Config) Merge(overlay *Config) {
	for _, f := range c.strings(overlay, nil) {
		if *f.src != "" {
			*f.dst = *f.src
		}
	}
	for _, f := range c.ints(overlay, nil) {
		if *f.src != 0 {
			*f.dst = *f.src
		}
	}
}

func (c *Config) loadDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 20
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == "" {
		c.ConnMaxLifetime = "15m"
	}
	if c.ConnTimeout == "" {
		c.ConnTimeout = "5s"
	}
}

func (c *Config) loadEnv(env *Env) {
	for _, f := range c.strings(nil, env) {
		if f.env == "" {
			continue
		}
		if v := os.Getenv(f.env); v != "" {
			*f.dst = v
		}
	}
	for _, f := range c.ints(nil, env) {
		if f.env == "" {
			continue
		}
		if v := os.Getenv(f.env); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*f.dst = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.ConnURL == "" {
		if c.Name == "" {
			return fmt.Errorf("name required")
		}
		if c.User == "" {
			return fmt.Errorf("user required")
		}
	} else if _, err := url.Parse(c.ConnURL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns (%d) exceeds max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid conn_max_lifetime: %w", err)
	}
	if _, err := time.ParseDuration(c.ConnTimeout); err != nil {
		return fmt.Errorf("invalid conn_timeout: %w", err)
	}
	return nil
}

type field[T any] struct {
	dst *T
	src *T
	env string
}

// strings pairs each string field with its overlay counterpart and env var name.
// Either overlay or env may be nil.
func (c *Config) strings(overlay *Config, env *Env) []field[string] {
	if overlay == nil {
		overlay = &Config{}
	}
	if env == nil {
		env = &Env{}
	}
	return []field[string]{
		{&c.ConnURL, &overlay.ConnURL, env.ConnURL},
		{&c.Host, &overlay.Host, env.Host},
		{&c.Name, &overlay.Name, env.Name},
		{&c.User, &overlay.User, env.User},
		{&c.Password, &overlay.Password, env.Password},
		{&c.SSLMode, &overlay.SSLMode, env.SSLMode},
		{&c.ConnMaxLifetime, &overlay.ConnMaxLifetime, env.ConnMaxLifetime},
		{&c.ConnTimeout, &overlay.ConnTimeout, env.ConnTimeout},
	}
}

func (c *Config) ints(overlay *Config, env *Env) []field[int] {
	if overlay == nil {
		overlay = &Config{}
	}
	if env == nil {
		env = &Env{}
	}
	return []field[int]{
		{&c.Port, &overlay.Port, env.Port},
		{&c.MaxOpenConns, &overlay.MaxOpenConns, env.MaxOpenConns},
		{&c.MaxIdleConns, &overlay.MaxIdleConns, env.MaxIdleConns},
	}
}
