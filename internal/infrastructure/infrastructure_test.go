package infrastructure_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/caesar/internal/config"
	"github.com/JaimeStill/caesar/internal/infrastructure"
	"github.com/JaimeStill/caesar/pkg/database"
	"github.com/JaimeStill/caesar/pkg/messaging"
)

func validConfig() *config.Config {
	return &config.Config{
		Database: database.Config{
			Host:            "127.0.0.1",
			Port:            1,
			Name:            "caesar",
			User:            "caesar",
			Password:        "caesar",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    1,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "200ms",
		},
		Version: "0.1.0",
	}
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil {
		t.Error("Lifecycle is nil")
	}
	if infra.Logger == nil {
		t.Error("Logger is nil")
	}
	if infra.Database == nil {
		t.Error("Database is nil")
	}
	if infra.Messaging != nil {
		t.Error("Messaging should be nil when disabled")
	}
}

func TestNewWithMessaging(t *testing.T) {
	cfg := validConfig()
	cfg.Messaging = messaging.Config{Enabled: true, URL: "nats://127.0.0.1:1"}
	if err := cfg.Messaging.Finalize(nil); err != nil {
		t.Fatalf("finalize messaging: %v", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if infra.Messaging == nil {
		t.Fatal("Messaging is nil")
	}
	t.Cleanup(func() { infra.Messaging.Conn().Close() })

	if infra.Messaging.Ready() {
		t.Error("messaging should not be ready against an unreachable broker")
	}
}

func TestStartUnreachableDatabaseNotReady(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := infra.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	infra.Lifecycle.WaitForStartup()

	if infra.Lifecycle.Ready() {
		t.Error("lifecycle should not be ready when the database ping fails")
	}

	if err := infra.Lifecycle.Shutdown(5 * time.Second); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
