package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/rs/zerolog"
)

// WatchDebounce coalesces bursts of writes (editors often write, chmod and
// rename in quick succession) into a single reload.
var WatchDebounce = 100 * time.Millisecond

// Watch calls reload whenever the file at path is written, created or
// renamed into place. The parent directory is watched so atomic replacement
// is seen. Reload failures are logged and the previous configuration stays
// in effect. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, reload func() error, logger zerolog.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigLoad, "cannot resolve configuration path").
			WithDetail("path", path)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot create file watcher")
	}
	defer func() { _ = w.Close() }()

	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		return errors.Wrap(err, errors.ErrFileAccess, "cannot watch configuration directory").
			WithDetail("path", dir)
	}

	logger.Debug().Str("path", abs).Msg("Watching configuration file")

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Trace().Str("event", ev.Op.String()).Msg("Configuration file changed")
			if timer == nil {
				timer = time.NewTimer(WatchDebounce)
			} else {
				timer.Reset(WatchDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := reload(); err != nil {
				logger.Warn().Err(err).Str("path", abs).Msg("Configuration reload failed, keeping previous configuration")
				continue
			}
			logger.Info().Str("path", abs).Msg("Configuration reloaded")

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("Configuration watcher error")
		}
	}
}
