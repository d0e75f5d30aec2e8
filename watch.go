package sink

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay lets an editor finish writing before the file is read
const reloadDelay = 50 * time.Millisecond

// WatchConfig reloads the [sink] table of path into the running sink whenever the file changes.
// The containing directory is watched so replace-by-rename saves are seen. Watching stops when
// ctx is done or the sink shuts down. Reload failures go to the error handler; the previous
// configuration stays active.
func (s *Sink) WatchConfig(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmtErrorf("failed to resolve config path '%s': %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmtErrorf("failed to create config watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return fmtErrorf("failed to watch config directory '%s': %w", filepath.Dir(absPath), err)
	}

	go s.watchLoop(ctx, watcher, absPath)
	return nil
}

func (s *Sink) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	defer func() {
		if err := watcher.Close(); err != nil {
			s.internalLog("failed to close config watcher: %v\n", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			time.Sleep(reloadDelay)
			s.reloadConfig(path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.reportError(fmtErrorf("config watcher error: %w", err))
		}
	}
}

// reloadConfig loads path and applies it, keeping the current config on failure
func (s *Sink) reloadConfig(path string) {
	cfg, err := NewConfigFromFile(path)
	if err != nil {
		s.reportError(fmtErrorf("config reload failed: %w", err))
		return
	}
	if err := s.ApplyConfig(cfg); err != nil {
		s.reportError(fmtErrorf("config reload rejected: %w", err))
		return
	}
	s.internalLog("configuration reloaded from '%s'\n", path)
}
