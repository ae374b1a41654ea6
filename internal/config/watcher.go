package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceDelay is the default delay for coalescing file system events.
// Editors typically produce several write events per save.
const DebounceDelay = 100 * time.Millisecond

// SettingsWatcher monitors the settings file for changes and reloads the
// configuration, notifying a callback with the new value.
//
// Thread-safety: all public methods are safe for concurrent use.
type SettingsWatcher struct {
	mu sync.Mutex

	watcher *fsnotify.Watcher
	path    string
	onLoad  func(*Config)
	logger  *slog.Logger

	debounceDelay time.Duration
	debounceTimer *time.Timer

	done    chan struct{}
	stopped chan struct{}
}

// NewSettingsWatcher creates a watcher for the given settings file path.
// onLoad is invoked with the freshly loaded configuration after each change.
// Call Start to begin watching and Close when done.
func NewSettingsWatcher(path string, onLoad func(*Config), logger *slog.Logger) (*SettingsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &SettingsWatcher{
		watcher:       watcher,
		path:          path,
		onLoad:        onLoad,
		logger:        logger,
		debounceDelay: DebounceDelay,
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}, nil
}

// SetDebounceDelay overrides the debounce delay. Call before Start.
func (w *SettingsWatcher) SetDebounceDelay(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceDelay = d
}

// Start begins watching the settings file's directory.
// Watching the directory rather than the file survives editors that
// replace the file on save.
func (w *SettingsWatcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	go w.eventLoop()
	return nil
}

// Close stops the watcher and releases resources.
func (w *SettingsWatcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	err := w.watcher.Close()
	<-w.stopped
	return err
}

func (w *SettingsWatcher) eventLoop() {
	defer close(w.stopped)

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("settings watcher error", "error", err)
			}
		}
	}
}

func (w *SettingsWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.reload)
}

func (w *SettingsWatcher) reload() {
	cfg, err := LoadFrom(w.path)
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("failed to reload settings", "path", w.path, "error", err)
		}
		return
	}
	if w.logger != nil {
		w.logger.Info("settings reloaded", "path", w.path)
	}
	if w.onLoad != nil {
		w.onLoad(cfg)
	}
}
