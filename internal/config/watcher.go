package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Store whenever its file is written.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	file    string
}

// NewWatcher watches the directory of the store's file.
// Editors often replace files on save, so the directory is watched rather
// than the file itself.
func NewWatcher(store *Store) (*Watcher, error) {
	if store.Path() == "" {
		return nil, fmt.Errorf("store has no backing file")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	file, err := filepath.Abs(store.Path())
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("resolving %s: %w", store.Path(), err)
	}
	if err := w.Add(filepath.Dir(file)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(file), err)
	}

	return &Watcher{store: store, watcher: w, file: file}, nil
}

// Run processes filesystem events until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	slog.Info("config watcher started", "path", w.file)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.matches(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				slog.Debug("config file changed", "op", event.Op.String(), "file", event.Name)
				if err := w.store.Reload(); err != nil {
					slog.Warn("config reload failed, keeping previous config", "error", err)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) matches(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return abs == w.file
}
