// Package messaging provides a NATS JetStream connection with lifecycle coordination.
package messaging

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/JaimeStill/caesar/pkg/lifecycle"
)

// System manages the NATS connection and lifecycle coordination.
type System interface {
	lifecycle.ReadinessChecker

	// Conn returns the underlying NATS connection.
	Conn() *nats.Conn
	// JetStream returns the JetStream context bound to the connection.
	JetStream() nats.JetStreamContext
	// Config returns the finalized messaging configuration.
	Config() *Config
	// Start registers a shutdown hook that drains the connection.
	Start(lc *lifecycle.Coordinator) error
}

type system struct {
	cfg    *Config
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *slog.Logger
}

// New connects to NATS. The client retries a failed initial connect in the
// background, so an unreachable server shows up as Ready() == false rather
// than an error here.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "messaging")

	conn, err := nats.Connect(
		cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(cfg.ConnTimeoutDuration()),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	return &system{
		cfg:    cfg,
		conn:   conn,
		js:     js,
		logger: logger,
	}, nil
}

func (s *system) Conn() *nats.Conn {
	return s.conn
}

func (s *system) JetStream() nats.JetStreamContext {
	return s.js
}

func (s *system) Config() *Config {
	return s.cfg
}

// Ready reports whether the connection is currently established.
func (s *system) Ready() bool {
	return s.conn.IsConnected()
}

func (s *system) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting messaging connection", "url", s.cfg.URL)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		s.logger.Info("draining nats connection")

		if err := s.conn.Drain(); err != nil {
			s.logger.Error("nats drain failed", "error", err)
			return
		}

		s.logger.Info("nats connection drained")
	})

	return nil
}
