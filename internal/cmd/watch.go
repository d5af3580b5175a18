package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/slotsig/internal/config"
	"github.com/Iron-Ham/slotsig/internal/event"
	"github.com/Iron-Ham/slotsig/internal/filewatch"
	"github.com/Iron-Ham/slotsig/internal/scenario"
	"github.com/Iron-Ham/slotsig/internal/tui/traceview"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file...>",
	Short: "Re-run scenario files whenever they change",
	Long: `Run scenario files, then run each again whenever it is saved.

When a config file is in use it is watched too: changes to trace or
scenario settings apply to the next run. Stop with Ctrl+C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

var watchDebounce time.Duration

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", filewatch.DefaultDebounce, "Wait this long after a change before re-running")
}

// watchSession holds the state of a watch command. It is confined to the
// command's goroutine; watcher goroutines forward changes over channels.
type watchSession struct {
	app    *app
	bus    *event.Bus
	runner *scenario.Runner
	opts   traceview.Options
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	files, err := filewatch.New(filewatch.WithDebounce(watchDebounce), filewatch.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer func() { _ = files.Close() }()

	paths := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return err
		}
		if err := files.Add(abs); err != nil {
			return err
		}
		paths = append(paths, abs)
	}

	var cfgWatcher *config.Watcher
	if used := viper.ConfigFileUsed(); used != "" {
		cfgWatcher, err = config.NewWatcher(used, a.logger)
		if err != nil {
			return fmt.Errorf("watching config: %w", err)
		}
		defer func() { _ = cfgWatcher.Close() }()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fileChanges := make(chan string)
	files.Changed.Connect(func(path string) {
		select {
		case fileChanges <- path:
		case <-ctx.Done():
		}
	})

	cfgChanges := make(chan config.ChangeEvent)
	if cfgWatcher != nil {
		cfgWatcher.Changed.Connect(func(ev config.ChangeEvent) {
			select {
			case cfgChanges <- ev:
			case <-ctx.Done():
			}
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return files.Run(gctx) })
	if cfgWatcher != nil {
		g.Go(func() error { return cfgWatcher.Run(gctx) })
	}

	s := newWatchSession(a, a.cfg)
	for _, path := range paths {
		s.runFile(gctx, path)
	}
	fmt.Fprintln(a.errOut, a.styles.Muted.Render(fmt.Sprintf("Watching %d file(s)... (Ctrl+C to stop)", len(paths))))

	loopErr := s.loop(gctx, fileChanges, cfgChanges)
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	return loopErr
}

func newWatchSession(a *app, cfg *config.Config) *watchSession {
	s := &watchSession{app: a, bus: event.NewBus(a.logger)}
	s.bus.Subscribe(event.TypeConfigChanged, func(e event.Event) {
		changed := e.(event.ConfigChangedEvent)
		fmt.Fprintln(a.errOut, a.styles.Muted.Render("config reloaded: "+strings.Join(changed.Changed, ", ")))
	})
	s.bus.Subscribe(event.TypeHandlerFailed, func(e event.Event) {
		failed := e.(event.HandlerFailedEvent)
		a.logger.Debug("handler panic recovered", "handler", failed.Handler, "depth", failed.Depth)
	})
	s.apply(cfg)
	return s
}

// apply rebuilds the runner and output settings from cfg.
func (s *watchSession) apply(cfg *config.Config) {
	s.runner = scenario.NewRunner(
		scenario.WithMaxDepth(cfg.Scenario.MaxDepth),
		scenario.WithBus(s.bus),
		scenario.WithLogger(s.app.logger),
	)
	s.opts = traceview.Options{ShowDepth: cfg.Trace.ShowDepth}

	if st, err := stylesFor(cfg, s.app.out); err == nil {
		s.app.styles = st
	} else {
		s.app.logger.Warn("keeping previous styles", "error", err)
	}
	s.app.cfg = cfg
}

func (s *watchSession) loop(ctx context.Context, fileChanges <-chan string, cfgChanges <-chan config.ChangeEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case path := <-fileChanges:
			s.runFile(ctx, path)

		case ev := <-cfgChanges:
			s.apply(ev.New)
			s.bus.Publish(event.NewConfigChangedEvent(ev.Path, ev.Changed))
		}
	}
}

// runFile loads and runs one scenario file. Load errors are printed, not
// returned, so that a half-written file does not end the session.
func (s *watchSession) runFile(ctx context.Context, path string) {
	out := s.app.out
	fmt.Fprintln(out, s.app.styles.Muted.Render(fmt.Sprintf("── %s  %s", time.Now().Format("15:04:05"), path)))

	sc, err := scenario.LoadFile(path)
	if err != nil {
		fmt.Fprintln(out, s.app.styles.ErrorMsg.Render(err.Error()))
		return
	}

	res, err := s.runner.Run(ctx, sc)
	if err != nil {
		if ctx.Err() == nil {
			fmt.Fprintln(out, s.app.styles.ErrorMsg.Render(err.Error()))
		}
		return
	}
	fmt.Fprint(out, traceview.Format(res, s.app.styles, s.opts))
}
