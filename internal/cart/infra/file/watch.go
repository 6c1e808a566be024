package file

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls fn with the current value of key every time its file is
// replaced or written, until ctx ends. It watches the directory rather than
// the file because writes rename a new file over the old one.
func (k *KV) Watch(ctx context.Context, key string, fn func([]byte)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("file kv: new watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(k.dir); err != nil {
		return fmt.Errorf("file kv: watch %s: %w", k.dir, err)
	}

	target := filepath.Clean(k.Path(key))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			data, err := k.Read(ctx, key)
			if err != nil {
				slog.Warn("file kv: read after change failed", slog.String("key", key), slog.Any("err", err))
				continue
			}
			fn(data)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("file kv: watcher error", slog.Any("err", err))
		}
	}
}
