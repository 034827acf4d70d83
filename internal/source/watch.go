package source

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// DefaultWatchInterval is the minimum spacing between change callbacks.
const DefaultWatchInterval = 500 * time.Millisecond

// Watch calls onChange whenever the file at path is written or replaced,
// until ctx is done. Bursts of events (editors often write a file several
// times per save) collapse into at most one callback per interval, with a
// trailing callback so the last write is never missed. Watcher errors go to
// onError when it is non-nil.
func Watch(ctx context.Context, path string, interval time.Duration, onChange func(), onError func(error)) error {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: atomic saves replace the file, which drops a
	// watch placed on the file itself.
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", target, err)
	}

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	var trailing <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if trailing != nil {
				continue
			}
			if delay := limiter.Reserve().Delay(); delay > 0 {
				trailing = time.After(delay)
				continue
			}
			onChange()

		case <-trailing:
			trailing = nil
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}
