// Package watcher reloads a journey document when it changes on disk.
package watcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/npratt/finroad/internal/journey"
)

const (
	// DefaultDebounce is the time to wait for rapid file changes to settle.
	DefaultDebounce = 100 * time.Millisecond

	// warningInterval is the minimum time between reported errors.
	warningInterval = 5 * time.Second
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce duration.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithOnError sets the callback for load and watch failures. Reports are
// throttled.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// Watcher monitors a journey document and hands every successfully parsed
// new version to its callback.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(*journey.Journey)
	onError  func(error)
	logger   *slog.Logger

	running  atomic.Bool
	done     chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	lastWarn time.Time
	last     []byte // content of the last delivered version
}

// New creates a watcher for the document at path. onChange runs on the
// watcher's goroutine.
func New(path string, onChange func(*journey.Journey), opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounce,
		onChange: onChange,
		onError:  func(error) {},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "watcher")
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching in a background goroutine and returns once the
// watch is in place. The current file content is the baseline and is not
// delivered.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running.Load() {
		return fmt.Errorf("watcher already running")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	// Watch the directory: editors replace files on save.
	if err := fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		_ = fsWatcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.last, _ = os.ReadFile(w.path)
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.running.Store(true)

	go w.runLoop(fsWatcher)

	w.logger.Info("started watching journey", "path", w.path)
	return nil
}

// Stop terminates the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running.Load() {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	w.cancel()
	<-w.done
	return nil
}

// Running returns whether the watcher is active.
func (w *Watcher) Running() bool {
	return w.running.Load()
}

func (w *Watcher) runLoop(fsWatcher *fsnotify.Watcher) {
	defer func() {
		_ = fsWatcher.Close()
		w.running.Store(false)
		close(w.done)
	}()

	var debounceTimer *time.Timer
	var debounceMu sync.Mutex

	triggerReload := func() {
		debounceMu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(w.debounce, w.reload)
		debounceMu.Unlock()
	}

	target := filepath.Base(w.path)

	for {
		select {
		case <-w.ctx.Done():
			debounceMu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceMu.Unlock()
			return

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				triggerReload()
			}

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.warn(fmt.Errorf("file watcher: %w", err))
		}
	}
}

// reload reads and parses the document and delivers it when the content
// differs from the last delivered version.
func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.warn(fmt.Errorf("read %s: %w", w.path, err))
		}
		return
	}

	w.mu.Lock()
	same := bytes.Equal(data, w.last)
	w.mu.Unlock()
	if same {
		return
	}

	format, err := journey.FormatFromPath(w.path)
	if err != nil {
		w.warn(err)
		return
	}
	j, err := journey.Decode(bytes.NewReader(data), format)
	if err != nil {
		// Partial writes parse badly; the next event retries.
		w.warn(fmt.Errorf("parse %s: %w", w.path, err))
		return
	}

	w.mu.Lock()
	w.last = data
	w.mu.Unlock()

	w.logger.Debug("journey changed", "path", w.path, "journey", j.ID)
	w.onChange(j)
}

func (w *Watcher) warn(err error) {
	w.mu.Lock()
	now := time.Now()
	if now.Sub(w.lastWarn) < warningInterval {
		w.mu.Unlock()
		return
	}
	w.lastWarn = now
	w.mu.Unlock()

	w.logger.Warn("journey watch problem", "error", err)
	w.onError(err)
}
