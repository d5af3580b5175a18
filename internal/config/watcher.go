package config

import (
	"context"
	"path/filepath"

	"github.com/Iron-Ham/slotsig/internal/filewatch"
	"github.com/Iron-Ham/slotsig/internal/logging"
	"github.com/Iron-Ham/slotsig/internal/signal"
)

// ChangeEvent describes a successful reload of the config file.
type ChangeEvent struct {
	Path    string
	Old     *Config
	New     *Config
	Changed []string // Dotted keys that differ, sorted
}

// Watcher reloads a config file whenever it changes on disk and invokes
// Changed when the reloaded values differ from the current ones.
//
// A reload that fails to parse or validate is logged and ignored; the
// previous configuration stays current.
type Watcher struct {
	// Changed is invoked from Run after each effective reload.
	Changed *signal.Signal[ChangeEvent]

	path    string
	current *Config
	files   *filewatch.Watcher
	logger  *logging.Logger
}

// NewWatcher loads path and prepares to watch it. A nil logger discards
// log output.
func NewWatcher(path string, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadFile(abs)
	if err != nil {
		return nil, err
	}

	files, err := filewatch.New(filewatch.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := files.Add(abs); err != nil {
		_ = files.Close()
		return nil, err
	}

	w := &Watcher{
		Changed: signal.New[ChangeEvent](signal.WithName("config"), signal.WithLogger(logger)),
		path:    abs,
		current: cfg,
		files:   files,
		logger:  logger,
	}
	files.Changed.Connect(func(string) {
		w.Reload()
	})
	return w, nil
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	return w.current
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Reload reads the file now. It reports whether Changed was invoked.
func (w *Watcher) Reload() bool {
	cfg, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", "path", w.path, "error", err)
		return false
	}

	changed := Diff(w.current, cfg)
	if len(changed) == 0 {
		return false
	}

	ev := ChangeEvent{Path: w.path, Old: w.current, New: cfg, Changed: changed}
	w.current = cfg
	w.logger.Info("config reloaded", "path", w.path, "changed", changed)
	w.Changed.Invoke(ev)
	return true
}

// Run watches the file until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	return w.files.Run(ctx)
}

// Close stops watching and disconnects every Changed handler.
func (w *Watcher) Close() error {
	w.Changed.Close()
	return w.files.Close()
}
