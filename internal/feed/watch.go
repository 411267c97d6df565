package feed

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ariel-frischer/changecast/internal/logging"
)

// debounce coalesces the burst of events an editor save produces.
const debounce = 100 * time.Millisecond

// Watch loads every interval until ctx is done and passes each outcome to
// fn. A non-positive interval disables refreshing.
func (l *Loader) Watch(ctx context.Context, interval time.Duration, fn func(*Result, error)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(l.Load(ctx))
		}
	}
}

// WatchFile reloads whenever path is written or re-created until ctx is
// done. The parent directory is watched so editors that replace the file
// on save are still seen.
func (l *Loader) WatchFile(ctx context.Context, path string, fn func(*Result, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			fn(l.Load(ctx))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("file watcher error", logging.Error(err))
		}
	}
}
