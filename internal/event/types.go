package event

import (
	"slices"
	"time"
)

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "scenario.started", "config.changed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeConfigChanged     = "config.changed"
	TypeScenarioStarted   = "scenario.started"
	TypeScenarioCompleted = "scenario.completed"
	TypeHandlerFailed     = "handler.failed"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Configuration Events
// -----------------------------------------------------------------------------

// ConfigChangedEvent is emitted when the config file is reloaded.
type ConfigChangedEvent struct {
	baseEvent
	Path    string   // Config file that changed
	Changed []string // Dotted keys whose values differ, sorted
}

// NewConfigChangedEvent creates a ConfigChangedEvent.
func NewConfigChangedEvent(path string, changed []string) ConfigChangedEvent {
	keys := slices.Clone(changed)
	slices.Sort(keys)
	return ConfigChangedEvent{
		baseEvent: newBaseEvent(TypeConfigChanged),
		Path:      path,
		Changed:   keys,
	}
}

// -----------------------------------------------------------------------------
// Scenario Events
// -----------------------------------------------------------------------------

// ScenarioStartedEvent is emitted before the first step of a scenario runs.
type ScenarioStartedEvent struct {
	baseEvent
	RunID    string // Unique identifier for this run
	Scenario string // Scenario name
	Steps    int    // Number of steps in the scenario
}

// NewScenarioStartedEvent creates a ScenarioStartedEvent.
func NewScenarioStartedEvent(runID, scenario string, steps int) ScenarioStartedEvent {
	return ScenarioStartedEvent{
		baseEvent: newBaseEvent(TypeScenarioStarted),
		RunID:     runID,
		Scenario:  scenario,
		Steps:     steps,
	}
}

// ScenarioCompletedEvent is emitted when a scenario run finishes.
type ScenarioCompletedEvent struct {
	baseEvent
	RunID    string        // Unique identifier for this run
	Scenario string        // Scenario name
	Passed   bool          // Whether the trace matched the expectation
	Calls    int           // Number of handler calls recorded
	Duration time.Duration // Wall time of the run
	Err      string        // Failure message, empty on success
}

// NewScenarioCompletedEvent creates a ScenarioCompletedEvent.
func NewScenarioCompletedEvent(runID, scenario string, passed bool, calls int, duration time.Duration, errMsg string) ScenarioCompletedEvent {
	return ScenarioCompletedEvent{
		baseEvent: newBaseEvent(TypeScenarioCompleted),
		RunID:     runID,
		Scenario:  scenario,
		Passed:    passed,
		Calls:     calls,
		Duration:  duration,
		Err:       errMsg,
	}
}

// HandlerFailedEvent is emitted when a scripted handler panics during a run.
type HandlerFailedEvent struct {
	baseEvent
	RunID    string // Unique identifier for this run
	Scenario string // Scenario name
	Handler  string // Name of the handler that panicked
	Depth    int    // Invocation depth at the time of the panic
	Value    string // Formatted panic value
}

// NewHandlerFailedEvent creates a HandlerFailedEvent.
func NewHandlerFailedEvent(runID, scenario, handler string, depth int, value string) HandlerFailedEvent {
	return HandlerFailedEvent{
		baseEvent: newBaseEvent(TypeHandlerFailed),
		RunID:     runID,
		Scenario:  scenario,
		Handler:   handler,
		Depth:     depth,
		Value:     value,
	}
}
