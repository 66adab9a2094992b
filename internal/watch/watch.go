// Package watch converts roster files as they appear in an inbox directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay unchanged before it is handled.
const DefaultDebounce = 500 * time.Millisecond

// Handler processes one settled file. Errors are logged and watching
// continues.
type Handler func(ctx context.Context, path string) error

// Watcher watches a single directory.
type Watcher struct {
	dir      string
	handle   Handler
	accept   func(path string) bool
	logger   *zap.Logger
	debounce time.Duration
	existing bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithFilter restricts handling to paths for which accept returns true.
func WithFilter(accept func(path string) bool) Option {
	return func(w *Watcher) { w.accept = accept }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets the quiet period before a file is handled.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithExisting also handles files already present when Run starts.
func WithExisting() Option {
	return func(w *Watcher) { w.existing = true }
}

// New returns a watcher for dir calling h for each new or rewritten file.
func New(dir string, h Handler, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		handle:   h,
		accept:   func(string) bool { return true },
		logger:   zap.NewNop(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. It returns nil on cancellation and an
// error only when the directory cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.Info("watching inbox", zap.String("dir", w.dir))

	pending := map[string]time.Time{}
	if w.existing {
		entries, err := os.ReadDir(w.dir)
		if err != nil {
			return fmt.Errorf("reading %s: %w", w.dir, err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				w.queue(pending, filepath.Join(w.dir, e.Name()), time.Time{})
			}
		}
	}

	tick := w.debounce / 2
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopped watching inbox", zap.String("dir", w.dir))
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					delete(pending, event.Name)
				}
				continue
			}
			w.queue(pending, event.Name, time.Now())

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case now := <-ticker.C:
			w.flush(ctx, pending, now)
		}
	}
}

func (w *Watcher) queue(pending map[string]time.Time, path string, at time.Time) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") || !w.accept(path) {
		return
	}
	pending[path] = at
}

// flush handles every pending file that has been quiet for the debounce
// period, in name order.
func (w *Watcher) flush(ctx context.Context, pending map[string]time.Time, now time.Time) {
	var ready []string
	for path, at := range pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)

	for _, path := range ready {
		delete(pending, path)
		if ctx.Err() != nil {
			return
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if err := w.handle(ctx, path); err != nil {
			w.logger.Error("handling file failed", zap.String("file", path), zap.Error(err))
			continue
		}
		w.logger.Debug("handled file", zap.String("file", path))
	}
}
