package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/dshills/screenloop/internal/config"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, `log_level = "info"`)

	reloaded := make(chan config.Config, 1)
	w, err := config.NewWatcher(path, func(cfg config.Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte(`log_level = "error"`), 0o644); err != nil {
		t.Fatalf("rewriting config file: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.LogLevel != "error" {
			t.Errorf("reloaded LogLevel = %q, want error", cfg.LogLevel)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("reload callback never ran")
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	path := writeConfig(t, `log_level = "info"`)

	w, err := config.NewWatcher(path, func(config.Config) {})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.Close()
	w.Close()
}
