// Package event provides a pub-sub event bus for decoupled communication
// between the scenario runner, the config watcher, and the CLI.
//
// Components publish events without knowing who will receive them, and
// subscribe to events without knowing who will produce them.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher built on [signal.Signal]
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Configuration:
//   - [ConfigChangedEvent]: Emitted when the watched config file is reloaded
//
// Scenario Runs:
//   - [ScenarioStartedEvent]: Emitted before a scenario's first step
//   - [ScenarioCompletedEvent]: Emitted when a scenario run finishes
//   - [HandlerFailedEvent]: Emitted when a scripted handler panics
//
// # Re-entrancy
//
// Each event type is backed by its own signal, so a handler may subscribe,
// unsubscribe (itself or others), clear the bus, or publish another event
// while a publish is in progress. A panicking handler is logged and does not
// prevent other handlers from being called.
//
// The [Bus] is not safe for concurrent use. Producers running on other
// goroutines hand their events to the owning goroutine, typically over a
// channel.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//
//	// Subscribe to specific event types
//	bus.Subscribe(event.TypeScenarioCompleted, func(e event.Event) {
//	    done := e.(event.ScenarioCompletedEvent)
//	    fmt.Printf("%s passed=%v\n", done.Scenario, done.Passed)
//	})
//
//	// Subscribe to all events (useful for logging)
//	bus.SubscribeAll(func(e event.Event) {
//	    logger.Debug("event", "type", e.EventType())
//	})
//
//	// Unsubscribe when done
//	id := bus.Subscribe(event.TypeConfigChanged, handler)
//	bus.Unsubscribe(id)
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - config.changed
//   - scenario.started, scenario.completed
//   - handler.failed
package event
