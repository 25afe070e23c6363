package filestore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watcherDebounce = 500 * time.Millisecond

// Watch watches the records directory and calls onChange after record files
// are created, written, removed or renamed, debounced so a burst of events
// yields one call. It blocks until ctx is cancelled.
func (s *AccountStore) Watch(ctx context.Context, onChange func()) error {
	return watchDir(ctx, s.dir, watcherDebounce, onChange)
}

func watchDir(ctx context.Context, dir string, debounce time.Duration, onChange func()) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create watched dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	slog.Info("watching saved accounts directory", "dir", dir)

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != recordExt {
				continue
			}
			slog.Debug("saved account file changed", "file", event.Name, "op", event.Op)

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("file watcher error", "error", err)
		}
	}
}
