// Package watcher reports changes to the session file made outside the running TUI,
// such as `portal login` or `portal logout` in another terminal.
package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/portal/internal/log"
	"github.com/zjrosen/portal/internal/pubsub"
)

// Change is published after the watched file settles.
type Change struct {
	Path    string
	Removed bool
}

// Config holds watcher options.
type Config struct {
	Path     string
	Debounce time.Duration
}

// DefaultConfig returns a config with a 200ms debounce.
func DefaultConfig(path string) Config {
	return Config{Path: path, Debounce: 200 * time.Millisecond}
}

// Watcher publishes a Change for each burst of writes to one file.
type Watcher struct {
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration
	broker   *pubsub.Broker[Change]
	done     chan struct{}
	stopOnce sync.Once
}

func New(cfg Config) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, errors.New("watcher: path is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		fs:       fsw,
		path:     filepath.Clean(cfg.Path),
		debounce: cfg.Debounce,
		broker:   pubsub.NewBroker[Change](),
		done:     make(chan struct{}),
	}, nil
}

// Broker returns the broker Changes are published on.
func (w *Watcher) Broker() *pubsub.Broker[Change] {
	return w.broker
}

// Start watches the file's directory, creating it if needed.
// The file itself may not exist yet.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	go w.loop()
	log.Debug(log.CatWatcher, "Watching", "path", w.path)
	return nil
}

// Stop terminates the watcher and closes the broker.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.broker.Close()
	})
	return err
}

func (w *Watcher) loop() {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || event.Op == fsnotify.Chmod {
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			_, err := os.Stat(w.path)
			change := Change{Path: w.path, Removed: errors.Is(err, os.ErrNotExist)}
			log.Debug(log.CatWatcher, "File changed", "path", w.path, "removed", change.Removed)
			w.broker.Publish(pubsub.UpdatedEvent, change)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watch error", err)

		case <-w.done:
			return
		}
	}
}
