package authen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the credential store when its file changes.
type Watcher struct {
	watcher *fsnotify.Watcher
	store   *Store
	logger  *slog.Logger
}

// NewWatcher creates a file watcher over the store's credential file.
func NewWatcher(store *Store, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(store.path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", store.path, err)
	}
	return &Watcher{watcher: watcher, store: store, logger: logger}, nil
}

// Run watches for file changes and reloads the store. Blocks until ctx
// is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	// Editors fire bursts of writes; wait for them to settle.
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					if err := w.store.Reload(); err != nil {
						w.logger.Error("credential reload failed", "error", err)
					}
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("credential watcher error", "error", err)
		}
	}
}
