// Package signal provides a typed, synchronous signal/slot primitive that
// stays consistent when handlers mutate it during emission.
//
// # Main Types
//
//   - [Signal]: an event source handlers connect to; Invoke calls them in order
//   - [Connection]: the handle of one subscription, used to disconnect or move it
//   - [Scope]: a set of Connections disconnected together
//
// # Mutation During Emission
//
// A handler running inside Invoke may:
//   - disconnect itself or any other handler (it is skipped if not yet reached)
//   - connect new handlers (they are reached by the same emission)
//   - call Invoke again on the same signal (nested emissions each keep a cursor)
//   - call DisconnectAll or Close (every emission in progress stops cleanly)
//
// Every in-progress Invoke registers a cursor on a per-signal stack. All
// removals go through one routine that moves every cursor parked on the
// removed handler forward before unlinking it.
//
// # Basic Usage
//
//	sig := signal.New[string](signal.WithName("greeting"))
//
//	conn := sig.Connect(func(name string) {
//	    fmt.Println("hello", name)
//	})
//	sig.Invoke("world")
//
//	conn.Disconnect()
//
// # Lifetime
//
// Go has no destructors, so a dropped Connection keeps its subscription
// alive. Disconnect explicitly, collect connections in a [Scope], or Close
// the signal.
//
// # Concurrency
//
// Signals are single-threaded: only re-entrancy is supported. Callers that
// share a signal across goroutines must serialize access themselves.
package signal
