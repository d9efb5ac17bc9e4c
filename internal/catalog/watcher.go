package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/icmprog/internal/ports"
)

// DefaultDebounce is how long the watcher waits after the last change
// before reloading. Editors often write a file in several steps.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a catalog file when it changes on disk and hands each
// successful load to a callback. A failed reload is logged and the caller
// keeps its current catalog.
type Watcher struct {
	mu sync.Mutex

	path     string
	delay    time.Duration
	onLoad   func(*Catalog)
	onError  func(error)
	logger   ports.Logger
	debounce *time.Timer
}

// NewWatcher creates a watcher for path. onLoad is called from a timer
// goroutine and must not block for long.
func NewWatcher(path string, logger ports.Logger, onLoad func(*Catalog)) *Watcher {
	return &Watcher{
		path:   path,
		delay:  DefaultDebounce,
		onLoad: onLoad,
		logger: logger,
	}
}

// SetDebounce overrides the debounce delay.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.delay = d
	}
}

// OnError registers a callback for failed reloads.
func (w *Watcher) OnError(fn func(error)) {
	w.onError = fn
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve catalog path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: atomic saves replace the file and drop a file watch.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w.logger.Info("watching catalog", ports.String("path", abs))

	name := filepath.Base(abs)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("catalog watcher error", ports.Err(err))
		}
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.delay, func() {
		if ctx.Err() != nil {
			return
		}
		w.reload()
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
}

func (w *Watcher) reload() {
	c, err := Load(w.path)
	if err != nil {
		w.logger.Error("catalog reload failed, keeping current catalog",
			ports.String("path", w.path),
			ports.Err(err),
		)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	w.logger.Info("catalog reloaded",
		ports.String("path", w.path),
		ports.Int("models", c.Len()),
	)
	w.onLoad(c)
}
