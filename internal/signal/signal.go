package signal

import (
	"fmt"
	"runtime/debug"

	"github.com/Iron-Ham/slotsig/internal/connlist"
	"github.com/Iron-Ham/slotsig/internal/errors"
	"github.com/Iron-Ham/slotsig/internal/logging"
)

// Handler is a function subscribed to a Signal.
type Handler[A any] func(A)

type slot[A any] struct {
	handler Handler[A]
}

// token is the cursor of one in-progress Invoke. Tokens form a stack through
// next, innermost first.
type token struct {
	cursor    connlist.Ref
	next      *token
	destroyed bool
}

// Signal is a synchronous multi-subscriber event source.
//
// Handlers run on the caller's goroutine in subscription order. A handler may
// connect or disconnect any handler, re-invoke the signal, or close it; the
// in-progress emissions stay consistent in every case.
//
// A Signal is not safe for concurrent use. The zero value is ready to use.
type Signal[A any] struct {
	name   string
	logger *logging.Logger

	slots  connlist.List[slot[A]]
	top    *token
	depth  int
	closed bool
}

// Option configures a Signal.
type Option func(*options)

type options struct {
	name   string
	logger *logging.Logger
}

// WithName sets the name used in log records and errors.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger enables debug logging of subscription changes.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a Signal.
func New[A any](opts ...Option) *Signal[A] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Signal[A]{name: o.name}
	if o.logger != nil {
		s.logger = o.logger
		if o.name != "" {
			s.logger = o.logger.WithSignal(o.name)
		}
	}
	return s
}

// Name returns the signal name given to New.
func (s *Signal[A]) Name() string {
	return s.name
}

// Len returns the number of connected handlers.
func (s *Signal[A]) Len() int {
	return s.slots.Len()
}

// Depth returns how many Invoke calls are currently running on this signal.
func (s *Signal[A]) Depth() int {
	return s.depth
}

// Emitting reports whether an Invoke is in progress.
func (s *Signal[A]) Emitting() bool {
	return s.depth > 0
}

// Closed reports whether Close has been called.
func (s *Signal[A]) Closed() bool {
	return s.closed
}

// Connect subscribes handler and returns the Connection controlling the
// subscription. The handler is appended after every existing handler; when
// called during an emission it is reached by that same emission.
//
// Connecting to a closed signal returns a Connection that is not connected.
func (s *Signal[A]) Connect(handler Handler[A]) *Connection {
	if handler == nil {
		panic("signal: Connect called with nil handler")
	}
	if s.closed {
		s.debug("connect ignored on closed signal")
		return &Connection{}
	}

	ref := s.slots.PushBack(slot[A]{handler: handler})

	// A token at End has run every earlier node but is still in progress,
	// so the new node is its next step.
	for tok := s.top; tok != nil; tok = tok.next {
		if tok.cursor.IsEnd() {
			tok.cursor = ref
		}
	}
	s.debug("handler connected", "slots", s.slots.Len(), "depth", s.depth)
	return &Connection{owner: s, ref: ref}
}

// ConnectOnce subscribes handler for a single call. The subscription ends
// before handler runs, so handler may safely re-invoke the signal.
func (s *Signal[A]) ConnectOnce(handler Handler[A]) *Connection {
	if handler == nil {
		panic("signal: ConnectOnce called with nil handler")
	}
	var ref connlist.Ref
	conn := s.Connect(func(a A) {
		s.unlink(ref)
		handler(a)
	})
	ref = conn.ref
	return conn
}

// Invoke calls every connected handler with arg, in order.
//
// The cursor is advanced past a handler before it is called, so the handler
// may disconnect itself. If the signal is closed by a handler, Invoke and
// every enclosing Invoke return as soon as that handler returns. A panic in a
// handler propagates to the caller after this call is unregistered.
func (s *Signal[A]) Invoke(arg A) {
	if s.closed {
		return
	}

	tok := &token{cursor: s.slots.Front(), next: s.top}
	s.top = tok
	s.depth++
	defer s.pop(tok)

	for !tok.cursor.IsEnd() {
		current := tok.cursor
		tok.cursor = s.slots.Next(current)

		sl, ok := s.slots.Get(current)
		if !ok {
			continue
		}
		sl.handler(arg)

		if tok.destroyed {
			return
		}
	}
}

// TryInvoke works like Invoke but recovers a handler panic and returns it as
// a *errors.HandlerError. Handlers after the panicking one are not called.
// Invoking a closed signal returns an error wrapping errors.ErrSignalClosed.
func (s *Signal[A]) TryInvoke(arg A) (err error) {
	if s.closed {
		return errors.NewSignalError("invoke rejected", errors.ErrSignalClosed).WithSignal(s.name)
	}

	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			if s.logger != nil {
				s.logger.Error("signal handler panicked",
					"panic", fmt.Sprint(r),
					"depth", s.depth,
					"stack", string(stack))
			}
			err = errors.NewHandlerError(r).WithSignal(s.name).WithStack(stack)
		}
	}()

	s.Invoke(arg)
	return nil
}

// DisconnectAll ends every subscription. Emissions in progress finish
// without calling further handlers, except handlers connected afterwards.
func (s *Signal[A]) DisconnectAll() {
	for front := s.slots.Front(); !front.IsEnd(); front = s.slots.Front() {
		s.unlink(front)
	}
	s.debug("all handlers disconnected", "depth", s.depth)
}

// Close ends every subscription and makes the signal inert. Emissions in
// progress, at every nesting level, stop once the running handler returns.
// Close is idempotent.
func (s *Signal[A]) Close() {
	if s.closed {
		return
	}

	if s.depth > 0 && s.logger != nil {
		s.logger.Warn("signal closed during emission", "depth", s.depth)
	}

	for tok := s.top; tok != nil; tok = tok.next {
		tok.destroyed = true
	}
	s.top = nil
	s.depth = 0

	for front := s.slots.Front(); !front.IsEnd(); front = s.slots.Front() {
		s.slots.Remove(front)
	}
	s.closed = true
	s.debug("signal closed")
}

// pop unregisters tok. A destroyed token is no longer on the stack.
func (s *Signal[A]) pop(tok *token) {
	if tok.destroyed {
		return
	}
	s.top = tok.next
	s.depth--
}

// unlink is the only place a connection leaves the list. Every cursor parked
// on ref, at any nesting level, moves past it first.
func (s *Signal[A]) unlink(ref connlist.Ref) bool {
	if !s.slots.Contains(ref) {
		return false
	}

	for tok := s.top; tok != nil; tok = tok.next {
		if tok.cursor == ref {
			tok.cursor = s.slots.Next(ref)
		}
	}

	s.slots.Remove(ref)
	s.debug("handler disconnected", "slots", s.slots.Len(), "depth", s.depth)
	return true
}

func (s *Signal[A]) linked(ref connlist.Ref) bool {
	return s.slots.Contains(ref)
}

func (s *Signal[A]) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
