// Package scenario scripts re-entrant use of a signal and checks the
// resulting call trace.
//
// A scenario declares named handlers, the actions each performs when
// called (disconnecting itself or others, connecting, emitting again,
// closing, panicking, moving a connection) and the steps that drive the
// signal from outside. The [Runner] executes it against a fresh
// signal.Signal[int] and compares the trace with the expected one.
//
// A scenario document looks like:
//
//	name: disconnect-next
//	handlers:
//	  - name: h1
//	    actions:
//	      - disconnect: next
//	  - name: h2
//	  - name: h3
//	steps:
//	  - emit: 1
//	expect:
//	  - h1(1)
//	  - h3(1)
//
// Trace lines are "name(arg)" or, to also check nesting, "name@depth(arg)".
// Labels written by record actions appear verbatim.
//
// Built-in scenarios covering every mutation-during-emission case are
// embedded; see [Builtins].
package scenario
