package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// defaultDebounce coalesces the bursts of events editors produce on save.
const defaultDebounce = 250 * time.Millisecond

// Watcher reports edits made to the document file by other programs.
//
// The parent directory is watched rather than the file itself, because an
// atomic replace swaps the inode and would silently end a file watch.
type Watcher struct {
	store    *FileStore
	debounce time.Duration
	logger   zerolog.Logger

	done chan struct{}
	once sync.Once
}

// NewWatcher creates a [Watcher] for st. It does nothing until Start.
func NewWatcher(st *FileStore, logger zerolog.Logger) *Watcher {
	return &Watcher{
		store:    st,
		debounce: defaultDebounce,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins watching in a background goroutine until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(w.store.Path())
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.store.prime()

	w.logger.Info().
		Str("path", w.store.Path()).
		Msg("watching dashboard document for external changes")

	go w.loop(ctx, fw)
	return nil
}

// Done is closed once the watch loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.once.Do(func() { close(w.done) })
	defer func() { _ = fw.Close() }()

	target := filepath.Clean(w.store.Path())

	var mu sync.Mutex
	var timer *time.Timer
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Msg("document watcher stopped")
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() { w.check(ctx) })
			mu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("document watcher error")
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	changed, err := w.store.CheckExternal(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Warn().Err(err).Msg("externally modified dashboard document is not usable")
		return
	}
	if changed {
		w.logger.Info().Str("path", w.store.Path()).Msg("dashboard document changed on disk")
	}
}
