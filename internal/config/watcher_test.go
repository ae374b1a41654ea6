package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oron-mozes/creo-sub001/internal/config"
)

func TestSettingsWatcher_ReloadsOnWrite(t *testing.T) {
	t.Setenv(config.ServerURLEnv, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{"log_level": "info"}`), 0600); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *config.Config, 4)
	watcher, err := config.NewSettingsWatcher(path, func(cfg *config.Config) {
		reloaded <- cfg
	}, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	watcher.SetDebounceDelay(10 * time.Millisecond)
	if err := watcher.Start(); err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	defer watcher.Close()

	if err := os.WriteFile(path, []byte(`{"log_level": "debug"}`), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.LogLevel != "debug" {
			t.Errorf("reloaded log level = %q, want debug", cfg.LogLevel)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

func TestSettingsWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *config.Config, 4)
	watcher, err := config.NewSettingsWatcher(path, func(cfg *config.Config) {
		reloaded <- cfg
	}, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	watcher.SetDebounceDelay(10 * time.Millisecond)
	if err := watcher.Start(); err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	defer watcher.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Error("writes to other files must not trigger a reload")
	case <-time.After(200 * time.Millisecond):
	}
}
