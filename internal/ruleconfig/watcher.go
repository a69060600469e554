package ruleconfig

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/headonpro/contenthooks/internal/hook"
	"github.com/headonpro/contenthooks/internal/rules"
)

// Watch re-applies the override file whenever it changes on disk, until ctx
// is cancelled. Reload is debounced because editors and config writers
// typically emit several events per save (write + rename + chmod), and some
// replace the file rather than writing in place, so the parent directory is
// watched instead of the file itself.
func Watch(ctx context.Context, path string, reg *rules.Registry, store *hook.SettingsStore, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)

	logger.Info("rule config watcher: started", slog.String("path", target))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("rule config watcher: stopped")
			return nil

		case <-reloadCh:
			if err := LoadAndApply(target, reg, store, logger); err != nil {
				logger.Warn("rule config reload failed",
					slog.String("path", target),
					slog.String("error", err.Error()))
				continue
			}
			logger.Info("rule config reloaded", slog.String("path", target))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("rule config watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
