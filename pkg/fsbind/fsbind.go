// Package fsbind turns files into bindings. A Watcher observes files
// through fsnotify and updates one FileBinding per path, debouncing the
// event bursts editors produce into a single reload. Because the change
// UID follows the content, downstream effect coordination sees real
// changes only.
package fsbind

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the reload delay applied after a filesystem event.
const DefaultDebounce = 100 * time.Millisecond

// ErrWatcherClosed is returned by operations on a closed Watcher.
var ErrWatcherClosed = errors.New("fsbind: watcher closed")

// Watcher owns the fsnotify instance and the bindings it feeds.
// Directories are watched rather than files, so atomic saves that
// replace the inode keep working.
type Watcher struct {
	fsw      *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	files   map[string]*FileBinding
	timers  map[string]*time.Timer
	watched map[string]struct{}
	closed  bool

	done chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets the reload delay. Values at or below zero keep the
// default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a Watcher and starts its event loop.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsbind: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		files:    make(map[string]*FileBinding),
		timers:   make(map[string]*time.Timer),
		watched:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.run()
	return w, nil
}

// Bind returns the binding for path, creating it on first use. The
// binding starts from the file's current content; a missing file is a
// valid absent binding that fills in when the file appears.
func (w *Watcher) Bind(path string) (*FileBinding, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("fsbind: resolve %s: %w", path, err)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrWatcherClosed
	}
	if fb, ok := w.files[abs]; ok {
		w.mu.Unlock()
		return fb, nil
	}
	w.mu.Unlock()

	content, exists, err := readFile(abs)
	if err != nil {
		return nil, fmt.Errorf("fsbind: read %s: %w", abs, err)
	}
	fb := newFileBinding(abs, content, exists)

	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrWatcherClosed
	}
	if existing, ok := w.files[abs]; ok {
		return existing, nil
	}
	if _, ok := w.watched[dir]; !ok {
		if err := w.fsw.Add(dir); err != nil {
			return nil, fmt.Errorf("fsbind: watch %s: %w", dir, err)
		}
		w.watched[dir] = struct{}{}
	}
	w.files[abs] = fb
	w.logger.Debug("file bound", "path", abs)
	return fb, nil
}

// Refresh re-reads path and applies the result immediately, bypassing
// the event debounce. Hosts call it when they know the file changed.
func (w *Watcher) Refresh(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("fsbind: resolve %s: %w", path, err)
	}

	w.mu.Lock()
	fb, ok := w.files[abs]
	closed := w.closed
	w.mu.Unlock()

	if closed {
		return ErrWatcherClosed
	}
	if !ok {
		return fmt.Errorf("fsbind: %s is not bound", abs)
	}

	content, exists, err := readFile(abs)
	if err != nil {
		return fmt.Errorf("fsbind: read %s: %w", abs, err)
	}
	fb.apply(content, exists)
	return nil
}

// Close stops the event loop and releases the fsnotify watcher.
// Existing bindings keep their last state. Idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.mu.Unlock()

	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return
	}
	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if _, ok := w.files[path]; !ok {
		return
	}

	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.reload(path)
	})
}

func (w *Watcher) reload(path string) {
	w.mu.Lock()
	delete(w.timers, path)
	fb := w.files[path]
	closed := w.closed
	w.mu.Unlock()

	if closed || fb == nil {
		return
	}

	content, exists, err := readFile(path)
	if err != nil {
		w.logger.Error("reload failed", "path", path, "error", err)
		return
	}
	fb.apply(content, exists)
}

func readFile(path string) ([]byte, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return content, true, nil
}
