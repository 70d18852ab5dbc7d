package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/logger"
)

// DefaultDebounce is how long the watcher waits for further writes
// before reloading.
const DefaultDebounce = 100 * time.Millisecond

// ReloadHandler receives the result of every reload.
type ReloadHandler func(cb *domain.Codebook, err error)

// Watcher reloads a Store whenever its file is written, created or
// replaced. The directory is watched rather than the file so editors that
// save by renaming a temp file are picked up.
type Watcher struct {
	store    *Store
	handler  ReloadHandler
	debounce time.Duration
	watcher  *fsnotify.Watcher

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce window.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for store. handler may be nil.
func NewWatcher(store *Store, handler ReloadHandler, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		store:    store,
		handler:  handler,
		debounce: DefaultDebounce,
		watcher:  fw,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. It returns once the watch is registered; events
// are handled in the background until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.store.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Debug("watching codebook %s", w.store.Path())

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	target := filepath.Clean(w.store.Path())
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("codebook watcher: %v", err)
		case <-fire:
			fire = nil
			cb, err := w.store.Reload(ctx)
			if err != nil {
				logger.Warn("reloading codebook: %v", err)
			} else {
				logger.Info("reloaded codebook %s", w.store.Path())
			}
			if w.handler != nil {
				w.handler(cb, err)
			}
		}
	}
}
