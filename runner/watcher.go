package runner

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-runs validation whenever a document or source file changes.
// Changes are debounced so editor save bursts trigger one pass.
type Watcher struct {
	opts     Options
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]struct{}

	runs chan struct{}
}

// NewWatcher creates a watcher over the workspace and marker source roots.
func NewWatcher(opts Options, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce == 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{
		opts:     opts,
		debounce: debounce,
		watcher:  fsw,
		logger:   logger,
		pending:  make(map[string]struct{}),
		runs:     make(chan struct{}, 1),
	}, nil
}

// Start registers the watch roots and begins the event loop. Each handler
// invocation corresponds to one debounced change batch; handler errors are
// logged, not fatal, so a broken edit does not stop the watch.
func (w *Watcher) Start(ctx context.Context, handler func(context.Context) error) error {
	root := w.opts.Config.Workspace.Root
	if err := w.addRecursive(root); err != nil {
		return err
	}

	go w.eventLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return w.watcher.Close()
		case <-w.runs:
			if err := handler(ctx); err != nil {
				w.logger.Error("validation pass failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *Watcher) eventLoop(ctx context.Context) {
	var timer *time.Timer
	fire := func() {
		w.pendingMu.Lock()
		n := len(w.pending)
		w.pending = make(map[string]struct{})
		w.pendingMu.Unlock()
		if n == 0 {
			return
		}
		w.logger.Debug("changes detected", slog.Int("files", n))
		select {
		case w.runs <- struct{}{}:
		default:
			// A pass is already queued; the next run picks up this batch.
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ignored(ev.Name) {
				continue
			}
			// New directories must be registered so nested edits are seen.
			if ev.Op&fsnotify.Create != 0 {
				_ = w.addRecursive(ev.Name)
			}
			w.pendingMu.Lock()
			w.pending[ev.Name] = struct{}{}
			w.pendingMu.Unlock()

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, fire)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

// addRecursive registers path and every directory beneath it.
func (w *Watcher) addRecursive(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if !d.IsDir() {
			return nil
		}
		if ignored(p) {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}

func ignored(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") && base != "." {
		return true
	}
	switch base {
	case "node_modules", "vendor", "target":
		return true
	}
	return false
}
