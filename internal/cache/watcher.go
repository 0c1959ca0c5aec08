package cache

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a watcher-triggered refresh.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors the projects root and runs a freshness pass shortly after
// conversation logs change, so queries rarely find stale records.
type Watcher struct {
	cache    *Cache
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	// OnRefresh, if set, is called after every watcher-triggered pass.
	OnRefresh func(Stats)

	mu      sync.Mutex
	ctx     context.Context
	timer   *time.Timer
	pending bool
}

// NewWatcher creates a watcher that refreshes c when files under root change.
// A non-positive debounce uses DefaultDebounce.
func NewWatcher(c *Cache, root string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		cache:    c,
		root:     root,
		debounce: debounce,
		fsw:      fsw,
	}, nil
}

// Start watches the root and every project directory under it.
func (w *Watcher) Start(ctx context.Context) error {
	watched := 0
	if err := w.fsw.Add(w.root); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		slog.Warn("watcher: projects root does not exist", "path", w.root)
	} else {
		watched++
		entries, err := os.ReadDir(w.root)
		if err == nil {
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				if err := w.fsw.Add(filepath.Join(w.root, e.Name())); err == nil {
					watched++
				}
			}
		}
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop(ctx)

	slog.Info("watcher started", "root", w.root, "watched", watched, "debounce", w.debounce)
	return nil
}

// Stop shuts down the watcher and waits for its loop to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.fsw.Close()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	// New project directory: watch it too.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if filepath.Dir(path) == w.root {
				_ = w.fsw.Add(path)
				slog.Debug("watcher: watching new project", "path", path)
			}
			w.schedule()
			return
		}
	}

	if filepath.Ext(path) != ".jsonl" && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	w.schedule()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = false
	ctx := w.ctx
	w.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}
	stats, err := w.cache.EnsureFresh(ctx)
	if err != nil {
		slog.Warn("watcher refresh failed", "error", err)
		return
	}
	slog.Debug("watcher refresh", "pass", stats.PassID, "derived", stats.Derived, "evicted", stats.Evicted)
	if w.OnRefresh != nil {
		w.OnRefresh(stats)
	}
}
