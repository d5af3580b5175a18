package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/slotsig/internal/errors"
	"github.com/Iron-Ham/slotsig/internal/event"
	"github.com/Iron-Ham/slotsig/internal/scenario"
	"github.com/Iron-Ham/slotsig/internal/tui/styles"
	"github.com/Iron-Ham/slotsig/internal/tui/traceview"
)

var runCmd = &cobra.Command{
	Use:   "run [scenario...]",
	Short: "Run scenarios and check their traces",
	Long: `Run one or more scenarios and compare each call trace with the
scenario's expectations.

A scenario is named by file path, by name in the scenario directory
(scenario.dir), or by built-in name. The command fails when any scenario
does not match its expectations.

Examples:
  # Run every built-in scenario and every file in scenario.dir
  sigtrace run --all

  # Run one built-in scenario and a local file
  sigtrace run reentrant ./my-case.yaml

  # Page through results interactively
  sigtrace run --all -i`,
	RunE: runRun,
}

var (
	runAll         bool
	runMaxDepth    int
	runInteractive bool
	runDepth       bool
	runIndent      bool
	runEvents      bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&runAll, "all", "a", false, "Run every built-in scenario and every scenario in scenario.dir")
	runCmd.Flags().IntVar(&runMaxDepth, "max-depth", 0, "Deepest nested emission (default: scenario.max_depth)")
	runCmd.Flags().BoolVarP(&runInteractive, "interactive", "i", false, "Open results in a pager (default: trace.interactive)")
	runCmd.Flags().BoolVar(&runDepth, "depth", true, "Print invocation depth (default: trace.show_depth)")
	runCmd.Flags().BoolVar(&runIndent, "indent", false, "Indent nested calls by depth")
	runCmd.Flags().BoolVar(&runEvents, "events", false, "Print run lifecycle events to stderr")
}

func runRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !runAll {
		return fmt.Errorf("no scenarios given\nName scenarios to run, or use --all")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	scenarios, err := collectScenarios(args, runAll, a.cfg.Scenario.ResolveDir())
	if err != nil {
		return err
	}

	maxDepth := a.cfg.Scenario.MaxDepth
	if cmd.Flags().Changed("max-depth") {
		maxDepth = runMaxDepth
	}

	bus := event.NewBus(a.logger)
	if runEvents {
		bus.SubscribeAll(func(e event.Event) {
			fmt.Fprintln(a.errOut, formatEvent(e))
		})
	}
	runner := scenario.NewRunner(
		scenario.WithMaxDepth(maxDepth),
		scenario.WithBus(bus),
		scenario.WithLogger(a.logger),
	)

	results, err := runScenarios(cmd.Context(), runner, scenarios)
	if err != nil {
		return err
	}

	opts := traceview.Options{ShowDepth: a.cfg.Trace.ShowDepth, Indent: runIndent}
	if cmd.Flags().Changed("depth") {
		opts.ShowDepth = runDepth
	}
	interactive := a.cfg.Trace.Interactive
	if cmd.Flags().Changed("interactive") {
		interactive = runInteractive
	}

	if interactive && styles.IsTerminal(a.out) {
		if err := traceview.Run(results, a.styles, opts); err != nil {
			return fmt.Errorf("pager failed: %w", err)
		}
	} else {
		printResults(a.out, results, a.styles, opts)
	}

	return failureError(results)
}

// collectScenarios resolves refs, then appends the built-ins and the
// scenarios in dir when all is set.
func collectScenarios(refs []string, all bool, dir string) ([]*scenario.Scenario, error) {
	var out []*scenario.Scenario
	for _, ref := range refs {
		sc, err := scenario.Resolve(ref, dir)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}

	if all {
		builtins, err := scenario.Builtins()
		if err != nil {
			return nil, err
		}
		out = append(out, builtins...)

		local, err := scenario.LoadDir(dir)
		if err != nil {
			return nil, err
		}
		out = append(out, local...)
	}
	return out, nil
}

func runScenarios(ctx context.Context, runner *scenario.Runner, scenarios []*scenario.Scenario) ([]*scenario.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]*scenario.Result, 0, len(scenarios))
	for _, sc := range scenarios {
		res, err := runner.Run(ctx, sc)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func printResults(w io.Writer, results []*scenario.Result, st *styles.Styles, opts traceview.Options) {
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, traceview.Format(res, st, opts))
	}
	if len(results) > 1 {
		fmt.Fprintln(w)
		fmt.Fprint(w, traceview.Summary(results, st))
	}
}

// failureError reports how many results failed, or nil.
func failureError(results []*scenario.Result) error {
	failed := 0
	for _, res := range results {
		if !res.Passed() {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	return errors.NewScenarioError(fmt.Sprintf("%d of %d scenarios failed", failed, len(results)), errors.ErrTraceMismatch).
		WithSeverity(errors.SeverityWarning)
}

func formatEvent(e event.Event) string {
	switch e := e.(type) {
	case event.ScenarioStartedEvent:
		return fmt.Sprintf("%s scenario=%s run=%s steps=%d", e.EventType(), e.Scenario, e.RunID, e.Steps)
	case event.ScenarioCompletedEvent:
		return fmt.Sprintf("%s scenario=%s run=%s passed=%t calls=%d", e.EventType(), e.Scenario, e.RunID, e.Passed, e.Calls)
	case event.HandlerFailedEvent:
		return fmt.Sprintf("%s scenario=%s run=%s handler=%s depth=%d value=%q",
			e.EventType(), e.Scenario, e.RunID, e.Handler, e.Depth, e.Value)
	default:
		return e.EventType()
	}
}
