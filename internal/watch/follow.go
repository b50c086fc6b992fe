package watch

import (
	"context"
	"log/slog"
	"time"
)

// Follow reports the current statuses through fn, then watches the
// documentation root and referenced source directories and reports the
// transitions after every burst of changes. Directories that start holding
// referenced files are added as references change. It returns when ctx is
// cancelled.
func Follow(ctx context.Context, t *Tracker, logger *slog.Logger, debounce time.Duration, fn func([]Transition)) error {
	if logger == nil {
		logger = slog.Default()
	}
	initial, c, _, err := t.Refresh(ctx)
	if err != nil {
		return err
	}
	fn(initial)

	w, err := New(logger, debounce)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(Dirs(c)...); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.Int("dirs", len(w.watched)))

	return w.Run(ctx, func(changed []string) {
		logger.Debug("watcher: refresh", slog.Int("changed", len(changed)))
		ts, c, _, err := t.Refresh(ctx)
		if err != nil {
			logger.Error("watcher: refresh failed", slog.String("error", err.Error()))
			return
		}
		if err := w.Add(Dirs(c)...); err != nil {
			logger.Warn("watcher: add dirs failed", slog.String("error", err.Error()))
		}
		if len(ts) > 0 {
			fn(ts)
		}
	})
}
