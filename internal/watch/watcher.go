// Package watch follows file-system changes under the documentation root and
// the directories of referenced source files.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/docctx/internal/cache"
)

// DefaultDebounce is the quiet period before a burst of events is reported.
const DefaultDebounce = 200 * time.Millisecond

// Callback receives the absolute paths changed during one debounce window,
// sorted.
type Callback func(changed []string)

// Watcher wraps an fsnotify watcher that adds directories recursively and
// coalesces bursts of events.
type Watcher struct {
	w        *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	watched map[string]struct{}
}

// New creates a watcher. A non-positive debounce uses DefaultDebounce.
func New(logger *slog.Logger, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{w: w, logger: logger, debounce: debounce, watched: make(map[string]struct{})}, nil
}

// Add watches each directory and all of its subdirectories. Directories
// already watched are skipped. Safe to call while Run is active.
func (w *Watcher) Add(dirs ...string) error {
	for _, d := range dirs {
		if err := w.addDirsRecursive(d); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error { return w.w.Close() }

// Run processes events until ctx is cancelled, calling cb once per debounce
// window with the paths that changed.
func (w *Watcher) Run(ctx context.Context, cb Callback) error {
	var timer *time.Timer
	var fire <-chan time.Time
	pending := make(map[string]struct{})

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-fire:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			if len(changed) > 0 && cb != nil {
				cb(changed)
			}

		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || ignored(ev.Name) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := w.addDirsRecursive(ev.Name); addErr != nil {
						w.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						w.logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
				}
			}

			w.logger.Debug("watcher: event", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			pending[ev.Name] = struct{}{}
			schedule()

		case watchErr, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// Watch is New, Add and Run in one call.
func Watch(ctx context.Context, dirs []string, logger *slog.Logger, debounce time.Duration, cb Callback) error {
	w, err := New(logger, debounce)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dirs...); err != nil {
		return err
	}
	w.logger.Info("watcher: started", slog.Int("dirs", len(w.watched)))
	return w.Run(ctx, cb)
}

// Dirs returns the directories to watch for a loaded cache: the
// documentation root and every directory holding a referenced file.
func Dirs(c *cache.Cache) []string {
	return append([]string{c.Root()}, c.SourceDirs()...)
}

// addDirsRecursive adds root and all its subdirectories to the watcher,
// skipping VCS metadata.
func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && d.Name() == ".git" {
			return filepath.SkipDir
		}
		w.mu.Lock()
		_, seen := w.watched[path]
		w.watched[path] = struct{}{}
		w.mu.Unlock()
		if seen {
			return nil
		}
		return w.w.Add(path)
	})
}

// ignored filters the temp files written by atomic replaces.
func ignored(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".docctx-tmp-")
}
