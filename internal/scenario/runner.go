package scenario

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/slotsig/internal/errors"
	"github.com/Iron-Ham/slotsig/internal/event"
	"github.com/Iron-Ham/slotsig/internal/logging"
	"github.com/Iron-Ham/slotsig/internal/signal"
)

// DefaultMaxDepth bounds nested emissions when no other limit is set.
const DefaultMaxDepth = 8

// Failure is a handler panic recovered during a run.
type Failure struct {
	Step    int    // Index of the emit step that was running
	Handler string // Handler that panicked
	Depth   int    // Invocation depth of the panicking call
	Value   string // Formatted panic value
}

// State is a snapshot of the signal after the last step.
type State struct {
	Len       int
	Closed    bool
	Connected []string // Connected handlers, in declaration order
}

// Result is the outcome of one scenario run.
type Result struct {
	RunID     string
	Scenario  string
	Trace     Trace
	Failures  []Failure
	Truncated int // Emit actions skipped at the depth limit
	Final     State
	Duration  time.Duration
	// Err is nil when every expectation held. Otherwise it joins one
	// *errors.ScenarioError per failed expectation.
	Err error
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool {
	return r.Err == nil
}

// Runner executes scenarios against a fresh signal per run.
type Runner struct {
	maxDepth int
	bus      *event.Bus
	logger   *logging.Logger
	newID    func() string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMaxDepth bounds nested emissions started by emit actions.
// Non-positive values are ignored.
func WithMaxDepth(depth int) RunnerOption {
	return func(r *Runner) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// WithBus publishes run lifecycle events to bus.
func WithBus(bus *event.Bus) RunnerOption {
	return func(r *Runner) {
		r.bus = bus
	}
}

// WithLogger sets the logger. Runs log with scenario and run_id attributes.
func WithLogger(logger *logging.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithIDGenerator replaces the run ID source.
func WithIDGenerator(fn func() string) RunnerOption {
	return func(r *Runner) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		maxDepth: DefaultMaxDepth,
		logger:   logging.NopLogger(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxDepth returns the nesting limit for emit actions.
func (r *Runner) MaxDepth() int {
	return r.maxDepth
}

// Run validates and executes sc. The returned error reports an invalid
// scenario or cancellation; expectation failures are reported in
// Result.Err.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	runID := r.newID()
	logger := r.logger.WithScenario(sc.Name).WithRun(runID)
	start := time.Now()

	r.publish(event.NewScenarioStartedEvent(runID, sc.Name, len(sc.Steps)))
	logger.Info("scenario started", "steps", len(sc.Steps), "max_depth", r.maxDepth)

	ex := newExecution(sc, r, logger, runID)
	for _, h := range sc.Handlers {
		if !h.Detached {
			ex.connect(h.Name)
		}
	}

	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			ex.teardown()
			r.publish(event.NewScenarioCompletedEvent(runID, sc.Name, false, ex.trace.Calls(), time.Since(start), err.Error()))
			logger.Warn("scenario cancelled", "step", i)
			return nil, errors.Wrapf(err, "scenario %s cancelled at step %d", sc.Name, i)
		}
		ex.step = i
		ex.runStep(st)
	}

	res := &Result{
		RunID:     runID,
		Scenario:  sc.Name,
		Trace:     ex.trace,
		Failures:  ex.failures,
		Truncated: ex.truncated,
		Final:     ex.state(),
	}
	ex.teardown()
	res.Duration = time.Since(start)
	res.Err = check(sc, res)

	errMsg := ""
	if res.Err != nil {
		errMsg = res.Err.Error()
		logger.Warn("scenario failed", "calls", res.Trace.Calls(), "error", errMsg)
	} else {
		logger.Info("scenario passed", "calls", res.Trace.Calls(), "duration", res.Duration)
	}
	r.publish(event.NewScenarioCompletedEvent(runID, sc.Name, res.Passed(), res.Trace.Calls(), res.Duration, errMsg))

	return res, nil
}

func (r *Runner) publish(e event.Event) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}

// check compares a result against the scenario's expectations.
func check(sc *Scenario, res *Result) error {
	var errs []error
	mismatch := func(format string, args ...any) {
		errs = append(errs, errors.NewScenarioError(fmt.Sprintf(format, args...), errors.ErrTraceMismatch).WithScenario(sc.Name))
	}

	if sc.Expect != nil {
		if idx, msg := res.Trace.Compare(sc.Expect); idx >= 0 {
			mismatch("%s", msg)
		}
	}

	if len(res.Failures) != sc.Panics {
		mismatch("recovered %d handler panics, want %d", len(res.Failures), sc.Panics)
	}

	if f := sc.Final; f != nil {
		if f.Len != nil && *f.Len != res.Final.Len {
			mismatch("final len %d, want %d", res.Final.Len, *f.Len)
		}
		if f.Closed != nil && *f.Closed != res.Final.Closed {
			mismatch("final closed %v, want %v", res.Final.Closed, *f.Closed)
		}
		if f.Connected != nil {
			want := slices.Clone(f.Connected)
			got := slices.Clone(res.Final.Connected)
			slices.Sort(want)
			slices.Sort(got)
			if !slices.Equal(want, got) {
				mismatch("final connected %v, want %v", res.Final.Connected, f.Connected)
			}
		}
	}

	return errors.Join(errs...)
}

type actionKey struct {
	handler int
	action  int
}

// execution is the state of one run.
type execution struct {
	sc       *Scenario
	runID    string
	maxDepth int
	bus      *event.Bus
	logger   *logging.Logger

	sig   *signal.Signal[int]
	scope signal.Scope
	conns map[string]*signal.Connection
	fired map[actionKey]bool

	step       int
	trace      Trace
	failures   []Failure
	truncated  int
	panicking  string
	panicDepth int
}

func newExecution(sc *Scenario, r *Runner, logger *logging.Logger, runID string) *execution {
	return &execution{
		sc:       sc,
		runID:    runID,
		maxDepth: r.maxDepth,
		bus:      r.bus,
		logger:   logger,
		sig:      signal.New[int](signal.WithName(sc.Name), signal.WithLogger(logger)),
		conns:    make(map[string]*signal.Connection, len(sc.Handlers)),
		fired:    make(map[actionKey]bool),
	}
}

// connect subscribes the named handler unless it is already connected.
func (ex *execution) connect(name string) {
	if ex.conns[name].Connected() {
		ex.logger.Debug("handler already connected", "handler", name)
		return
	}

	idx := slices.IndexFunc(ex.sc.Handlers, func(h HandlerSpec) bool { return h.Name == name })
	fn := ex.handlerFunc(idx)

	var conn *signal.Connection
	if ex.sc.Handlers[idx].Once {
		conn = ex.sig.ConnectOnce(fn)
	} else {
		conn = ex.sig.Connect(fn)
	}
	ex.conns[name] = ex.scope.Add(conn)
}

func (ex *execution) handlerFunc(idx int) signal.Handler[int] {
	h := &ex.sc.Handlers[idx]
	return func(arg int) {
		depth := ex.sig.Depth()
		ex.trace = append(ex.trace, Entry{Handler: h.Name, Arg: arg, Depth: depth})

		for i, a := range h.Actions {
			if a.Depth != 0 && a.Depth != depth {
				continue
			}
			key := actionKey{handler: idx, action: i}
			if a.Once && ex.fired[key] {
				continue
			}
			ex.fired[key] = true
			ex.apply(idx, a, depth)
		}
	}
}

func (ex *execution) apply(idx int, a Action, depth int) {
	name := ex.sc.Handlers[idx].Name

	switch a.Verb() {
	case "record":
		ex.trace = append(ex.trace, Entry{Label: a.Record, Depth: depth})
	case "disconnect":
		switch a.Disconnect {
		case TargetSelf:
			ex.conns[name].Disconnect()
		case TargetNext:
			ex.conns[ex.sc.Handlers[idx+1].Name].Disconnect()
		case TargetAll:
			ex.disconnectAll()
		default:
			ex.conns[a.Disconnect].Disconnect()
		}
	case "clear":
		ex.sig.DisconnectAll()
	case "connect":
		ex.connect(a.Connect)
	case "emit":
		if depth >= ex.maxDepth {
			ex.truncated++
			ex.logger.Warn("emit skipped at depth limit", "handler", name, "depth", depth)
			return
		}
		ex.sig.Invoke(*a.Emit)
	case "close":
		ex.sig.Close()
	case "panic":
		ex.panicking, ex.panicDepth = name, depth
		panic(a.Panic)
	case "move":
		target := a.Move
		if target == TargetSelf {
			target = name
		}
		ex.conns[target] = ex.scope.Add(ex.conns[target].Move())
	}
}

func (ex *execution) runStep(st Step) {
	switch st.Verb() {
	case "emit":
		err := ex.sig.TryInvoke(*st.Emit)
		if err == nil {
			return
		}
		if errors.Is(err, errors.ErrSignalClosed) {
			ex.logger.Debug("emit step on closed signal", "step", ex.step)
			return
		}
		var handlerErr *errors.HandlerError
		if errors.As(err, &handlerErr) {
			f := Failure{
				Step:    ex.step,
				Handler: ex.panicking,
				Depth:   ex.panicDepth,
				Value:   fmt.Sprint(handlerErr.Value),
			}
			ex.failures = append(ex.failures, f)
			ex.logger.Warn("handler panic recovered", "step", f.Step, "handler", f.Handler, "depth", f.Depth)
			if ex.bus != nil {
				ex.bus.Publish(event.NewHandlerFailedEvent(ex.runID, ex.sc.Name, f.Handler, f.Depth, f.Value))
			}
		}
	case "disconnect":
		if st.Disconnect == TargetAll {
			ex.disconnectAll()
			return
		}
		ex.conns[st.Disconnect].Disconnect()
	case "connect":
		ex.connect(st.Connect)
	case "close":
		ex.sig.Close()
	}
}

func (ex *execution) disconnectAll() {
	for _, h := range ex.sc.Handlers {
		ex.conns[h.Name].Disconnect()
	}
}

func (ex *execution) state() State {
	st := State{Len: ex.sig.Len(), Closed: ex.sig.Closed()}
	for _, h := range ex.sc.Handlers {
		if ex.conns[h.Name].Connected() {
			st.Connected = append(st.Connected, h.Name)
		}
	}
	return st
}

func (ex *execution) teardown() {
	ex.scope.Close()
	ex.sig.Close()
}
