// Package filewatch reports changes to individual files through a signal.
package filewatch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/slotsig/internal/errors"
	"github.com/Iron-Ham/slotsig/internal/logging"
	"github.com/Iron-Ham/slotsig/internal/signal"
)

// DefaultDebounce collapses the burst of events many editors produce for a
// single save.
const DefaultDebounce = 50 * time.Millisecond

// Watcher watches a set of files and invokes Changed with the absolute path
// of each file that was written, created, or replaced.
//
// Parent directories are watched rather than the files themselves, so a file
// replaced through rename (as most editors save) keeps being reported.
//
// Changed is invoked from Run, on the goroutine that called Run.
type Watcher struct {
	// Changed receives one call per changed file per debounce window.
	Changed *signal.Signal[string]

	watcher  *fsnotify.Watcher
	files    map[string]bool // absolute path -> watched
	dirs     map[string]int  // directory -> watched file count
	debounce time.Duration
	logger   *logging.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce window. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for watch errors.
func WithLogger(logger *logging.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a Watcher with no files.
func New(opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}

	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]bool),
		dirs:     make(map[string]int),
		debounce: DefaultDebounce,
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.Changed = signal.New[string](signal.WithName("filewatch"), signal.WithLogger(w.logger))
	return w, nil
}

// Add starts watching path. The file must exist.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", path)
	}
	if _, err := os.Stat(abs); err != nil {
		return errors.NewNotFoundError("watched file", abs).WithCause(err)
	}
	if w.files[abs] {
		return nil
	}

	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "watch %s", dir)
		}
	}
	w.dirs[dir]++
	w.files[abs] = true
	w.logger.Debug("watching file", "path", abs)
	return nil
}

// Remove stops watching path.
func (w *Watcher) Remove(path string) {
	abs, err := filepath.Abs(path)
	if err != nil || !w.files[abs] {
		return
	}
	delete(w.files, abs)

	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		_ = w.watcher.Remove(dir)
	}
}

// Files returns the number of watched files.
func (w *Watcher) Files() int {
	return len(w.files)
}

// Run processes filesystem events until ctx is done or the watcher is
// closed. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	debounceTimer := time.NewTimer(w.debounce)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()

	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !w.files[abs] {
				continue
			}
			pending[abs] = true
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			changed := pending
			pending = make(map[string]bool)
			for path := range changed {
				// A rename away without a replacement leaves nothing to report.
				if _, err := os.Stat(path); err != nil {
					continue
				}
				w.Changed.Invoke(path)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// Close stops the underlying watcher and disconnects every handler.
func (w *Watcher) Close() error {
	w.Changed.Close()
	return w.watcher.Close()
}
