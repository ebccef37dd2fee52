package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"stratum/pkg/logging"
)

// watchDebounce coalesces the bursts of events editors emit on save.
const watchDebounce = 250 * time.Millisecond

// Watch observes the configuration file for changes until ctx is cancelled.
// Each change triggers a reload; a reload that fails validation is logged
// and discarded, the running configuration stays active.
//
// The parent directory is watched rather than the file itself because most
// editors replace files via rename, which drops a direct file watch.
func (s *Service) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create configuration watcher: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch configuration directory %s: %w", dir, err)
	}

	go s.watchLoop(ctx, watcher)
	logging.Debug("ConfigService", "Watching %s for configuration changes", s.filePath)
	return nil
}

func (s *Service) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.filePath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := s.reload(); err != nil {
				logging.Error("ConfigService", err, "Configuration reload rejected, keeping previous configuration")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("ConfigService", "Configuration watcher error: %v", err)
		}
	}
}
