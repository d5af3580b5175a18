package scenario

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/slotsig/internal/errors"
)

// Reserved handler targets.
const (
	TargetSelf = "self"
	TargetNext = "next"
	TargetAll  = "all"
)

// Scenario is a scripted exercise of one signal carrying an int argument.
type Scenario struct {
	// Name identifies the scenario (e.g., "self-disconnect")
	Name string `yaml:"name"`
	// Description explains the behavior being exercised (optional)
	Description string `yaml:"description,omitempty"`
	// Handlers are connected in declaration order before the first step,
	// except those marked detached.
	Handlers []HandlerSpec `yaml:"handlers"`
	// Steps drive the signal from outside any handler.
	Steps []Step `yaml:"steps"`
	// Expect is the expected trace, one entry per line (optional).
	// Entries are "name(arg)", "name@depth(arg)", or a record label.
	Expect []string `yaml:"expect,omitempty"`
	// Final asserts the signal state after the last step (optional).
	Final *Final `yaml:"final,omitempty"`
	// Panics is the number of handler panics the run should recover.
	Panics int `yaml:"panics,omitempty"`
}

// HandlerSpec declares one handler and what it does when called.
type HandlerSpec struct {
	// Name identifies the handler in traces and action targets
	Name string `yaml:"name"`
	// Once connects the handler with ConnectOnce
	Once bool `yaml:"once,omitempty"`
	// Detached handlers start disconnected; a connect action or step
	// connects them.
	Detached bool `yaml:"detached,omitempty"`
	// Actions run in order each time the handler is called, after the
	// call is recorded.
	Actions []Action `yaml:"actions,omitempty"`
}

// Action is one thing a handler does while it runs. Exactly one verb field
// must be set.
type Action struct {
	// Record appends a label to the trace
	Record string `yaml:"record,omitempty"`
	// Disconnect ends a subscription: self, next, all, or a handler name
	Disconnect string `yaml:"disconnect,omitempty"`
	// Clear disconnects every handler through the signal
	Clear bool `yaml:"clear,omitempty"`
	// Connect connects a disconnected handler by name
	Connect string `yaml:"connect,omitempty"`
	// Emit invokes the signal again, nested, with the given argument
	Emit *int `yaml:"emit,omitempty"`
	// Close closes the signal
	Close bool `yaml:"close,omitempty"`
	// Panic panics with the given message
	Panic string `yaml:"panic,omitempty"`
	// Move transfers a subscription to a new handle: self or a handler name
	Move string `yaml:"move,omitempty"`

	// Depth restricts the action to calls at this invocation depth
	// (1 is the outermost). Zero means any depth.
	Depth int `yaml:"depth,omitempty"`
	// Once restricts the action to the first call that reaches it
	Once bool `yaml:"once,omitempty"`
}

// Step is one driver operation. Exactly one verb field must be set.
type Step struct {
	// Emit invokes the signal with the given argument
	Emit *int `yaml:"emit,omitempty"`
	// Disconnect ends a subscription: all or a handler name
	Disconnect string `yaml:"disconnect,omitempty"`
	// Connect connects a disconnected handler by name
	Connect string `yaml:"connect,omitempty"`
	// Close closes the signal
	Close bool `yaml:"close,omitempty"`
}

// Final describes the expected signal state after the last step.
type Final struct {
	// Len is the expected number of connected handlers
	Len *int `yaml:"len,omitempty"`
	// Closed is the expected closed state
	Closed *bool `yaml:"closed,omitempty"`
	// Connected lists exactly the handlers expected to be connected
	Connected []string `yaml:"connected,omitempty"`
}

// Verb returns the name of the verb set on the action, or "" if none is.
func (a Action) Verb() string {
	verbs := a.verbs()
	if len(verbs) != 1 {
		return ""
	}
	return verbs[0]
}

func (a Action) verbs() []string {
	var verbs []string
	if a.Record != "" {
		verbs = append(verbs, "record")
	}
	if a.Disconnect != "" {
		verbs = append(verbs, "disconnect")
	}
	if a.Clear {
		verbs = append(verbs, "clear")
	}
	if a.Connect != "" {
		verbs = append(verbs, "connect")
	}
	if a.Emit != nil {
		verbs = append(verbs, "emit")
	}
	if a.Close {
		verbs = append(verbs, "close")
	}
	if a.Panic != "" {
		verbs = append(verbs, "panic")
	}
	if a.Move != "" {
		verbs = append(verbs, "move")
	}
	return verbs
}

// String describes the action in one line, e.g. "disconnect next @2 once".
func (a Action) String() string {
	var s string
	switch a.Verb() {
	case "record":
		s = "record " + a.Record
	case "disconnect":
		s = "disconnect " + a.Disconnect
	case "clear":
		s = "clear"
	case "connect":
		s = "connect " + a.Connect
	case "emit":
		s = fmt.Sprintf("emit %d", *a.Emit)
	case "close":
		s = "close"
	case "panic":
		s = fmt.Sprintf("panic %q", a.Panic)
	case "move":
		s = "move " + a.Move
	default:
		s = "invalid"
	}
	if a.Depth > 0 {
		s += fmt.Sprintf(" @%d", a.Depth)
	}
	if a.Once {
		s += " once"
	}
	return s
}

// Verb returns the name of the verb set on the step, or "" if none is.
func (s Step) Verb() string {
	verbs := s.verbs()
	if len(verbs) != 1 {
		return ""
	}
	return verbs[0]
}

func (s Step) verbs() []string {
	var verbs []string
	if s.Emit != nil {
		verbs = append(verbs, "emit")
	}
	if s.Disconnect != "" {
		verbs = append(verbs, "disconnect")
	}
	if s.Connect != "" {
		verbs = append(verbs, "connect")
	}
	if s.Close {
		verbs = append(verbs, "close")
	}
	return verbs
}

// String describes the step in one line.
func (s Step) String() string {
	switch s.Verb() {
	case "emit":
		return fmt.Sprintf("emit %d", *s.Emit)
	case "disconnect":
		return "disconnect " + s.Disconnect
	case "connect":
		return "connect " + s.Connect
	case "close":
		return "close"
	default:
		return "invalid"
	}
}

// Handler returns the handler declared with name.
func (sc *Scenario) Handler(name string) (*HandlerSpec, bool) {
	for i := range sc.Handlers {
		if sc.Handlers[i].Name == name {
			return &sc.Handlers[i], true
		}
	}
	return nil, false
}

// Validate checks the scenario for structural errors and returns all of
// them joined.
func (sc *Scenario) Validate() error {
	var errs []error
	invalid := func(msg string, cause error) *errors.ScenarioError {
		e := errors.NewScenarioError(msg, cause).WithScenario(sc.Name)
		errs = append(errs, e)
		return e
	}

	if strings.TrimSpace(sc.Name) == "" {
		invalid("name is required", errors.ErrScenarioInvalid)
	}
	if len(sc.Handlers) == 0 {
		invalid("at least one handler is required", errors.ErrScenarioInvalid)
	}
	if len(sc.Steps) == 0 {
		invalid("at least one step is required", errors.ErrScenarioInvalid)
	}
	if sc.Panics < 0 {
		invalid("panics must be non-negative", errors.ErrScenarioInvalid)
	}

	seen := make(map[string]bool, len(sc.Handlers))
	for _, h := range sc.Handlers {
		switch {
		case h.Name == "":
			invalid("handler name is required", errors.ErrScenarioInvalid)
			continue
		case h.Name == TargetSelf || h.Name == TargetNext || h.Name == TargetAll:
			invalid(fmt.Sprintf("handler name %q is reserved", h.Name), errors.ErrScenarioInvalid).WithHandler(h.Name)
		case strings.ContainsAny(h.Name, "@() "):
			invalid(fmt.Sprintf("handler name %q contains trace syntax", h.Name), errors.ErrScenarioInvalid).WithHandler(h.Name)
		case seen[h.Name]:
			invalid("duplicate handler name", errors.ErrScenarioInvalid).WithHandler(h.Name)
		}
		seen[h.Name] = true
	}

	for i, h := range sc.Handlers {
		for j, a := range h.Actions {
			if err := sc.validateAction(i, a); err != nil {
				invalid(fmt.Sprintf("action %d: %s", j, err.msg), err.cause).WithHandler(h.Name)
			}
		}
	}

	for i, st := range sc.Steps {
		if err := sc.validateStep(st); err != nil {
			invalid(err.msg, err.cause).WithStep(i)
		}
	}

	if sc.Final != nil {
		if sc.Final.Len != nil && *sc.Final.Len < 0 {
			invalid("final.len must be non-negative", errors.ErrScenarioInvalid)
		}
		for _, name := range sc.Final.Connected {
			if !seen[name] {
				invalid(fmt.Sprintf("final.connected names %q", name), errors.ErrUnknownHandler)
			}
		}
	}

	return errors.Join(errs...)
}

type problem struct {
	msg   string
	cause error
}

func (sc *Scenario) validateAction(handlerIdx int, a Action) *problem {
	verbs := a.verbs()
	switch {
	case len(verbs) == 0:
		return &problem{"no verb set", errors.ErrUnknownAction}
	case len(verbs) > 1:
		return &problem{"multiple verbs set: " + strings.Join(verbs, ", "), errors.ErrScenarioInvalid}
	}
	if a.Depth < 0 {
		return &problem{"depth must be non-negative", errors.ErrScenarioInvalid}
	}

	switch verbs[0] {
	case "disconnect":
		switch a.Disconnect {
		case TargetSelf, TargetAll:
			return nil
		case TargetNext:
			if handlerIdx == len(sc.Handlers)-1 {
				return &problem{"disconnect next on the last handler", errors.ErrUnknownHandler}
			}
			return nil
		}
		return sc.checkTarget(a.Disconnect)
	case "connect":
		return sc.checkTarget(a.Connect)
	case "move":
		if a.Move == TargetSelf {
			return nil
		}
		return sc.checkTarget(a.Move)
	}
	return nil
}

func (sc *Scenario) validateStep(st Step) *problem {
	verbs := st.verbs()
	switch {
	case len(verbs) == 0:
		return &problem{"no verb set", errors.ErrUnknownAction}
	case len(verbs) > 1:
		return &problem{"multiple verbs set: " + strings.Join(verbs, ", "), errors.ErrScenarioInvalid}
	}

	switch verbs[0] {
	case "disconnect":
		if st.Disconnect == TargetAll {
			return nil
		}
		return sc.checkTarget(st.Disconnect)
	case "connect":
		return sc.checkTarget(st.Connect)
	}
	return nil
}

func (sc *Scenario) checkTarget(name string) *problem {
	if _, ok := sc.Handler(name); !ok {
		return &problem{fmt.Sprintf("target %q is not a declared handler", name), errors.ErrUnknownHandler}
	}
	return nil
}
