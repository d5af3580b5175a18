package event

import (
	"fmt"
	"runtime/debug"
	"strconv"

	"github.com/Iron-Ham/slotsig/internal/logging"
	"github.com/Iron-Ham/slotsig/internal/signal"
)

// wildcard is the event type key used by SubscribeAll.
const wildcard = "*"

// Handler is a function that handles an event.
type Handler func(Event)

// subscription represents a registered event handler.
type subscription struct {
	eventType string
	conn      *signal.Connection
}

// Bus is a synchronous pub-sub event bus built on one signal per event type.
// It allows components to communicate without direct dependencies.
//
// Handlers may subscribe, unsubscribe, or publish from inside a handler.
// A Bus is confined to one goroutine, like the signals it is made of.
type Bus struct {
	logger        *logging.Logger
	signals       map[string]*signal.Signal[Event] // eventType -> signal
	subscriptions map[string]subscription          // id -> subscription
	nextID        uint64
}

// NewBus creates a new event bus. A nil logger discards handler panics.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Bus{
		logger:        logger,
		signals:       make(map[string]*signal.Signal[Event]),
		subscriptions: make(map[string]subscription),
	}
}

// Subscribe registers a handler for a specific event type.
// Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	id := b.generateID()
	conn := b.signalFor(eventType).Connect(func(e Event) {
		b.safeCall(handler, e)
	})
	b.subscriptions[id] = subscription{eventType: eventType, conn: conn}
	return id
}

// SubscribeOnce registers a handler that is removed before its first call.
func (b *Bus) SubscribeOnce(eventType string, handler Handler) string {
	id := b.generateID()
	conn := b.signalFor(eventType).ConnectOnce(func(e Event) {
		delete(b.subscriptions, id)
		b.safeCall(handler, e)
	})
	b.subscriptions[id] = subscription{eventType: eventType, conn: conn}
	return id
}

// SubscribeAll registers a handler for all event types.
// The handler will be called for every published event.
// Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe(wildcard, handler)
}

// Unsubscribe removes a subscription by ID.
// Returns true if the subscription was found and removed.
func (b *Bus) Unsubscribe(id string) bool {
	sub, ok := b.subscriptions[id]
	if !ok {
		return false
	}
	delete(b.subscriptions, id)
	sub.conn.Disconnect()
	return true
}

// Publish dispatches an event to all registered handlers.
// Specific handlers (subscribed to this event type) are called first,
// followed by wildcard handlers (subscribed via SubscribeAll).
// Within each group, handlers are called in registration order.
// If a handler panics, the panic is logged, recovered, and publishing
// continues to remaining handlers.
func (b *Bus) Publish(event Event) {
	if sig, ok := b.signals[event.EventType()]; ok {
		sig.Invoke(event)
	}
	if sig, ok := b.signals[wildcard]; ok {
		sig.Invoke(event)
	}
}

// safeCall invokes a handler and recovers from any panics.
// Panics are logged with stack traces to aid debugging while ensuring
// one misbehaving handler cannot block event delivery to other handlers.
func (b *Bus) safeCall(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event_type", event.EventType(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	handler(event)
}

func (b *Bus) signalFor(eventType string) *signal.Signal[Event] {
	sig, ok := b.signals[eventType]
	if !ok {
		sig = signal.New[Event](signal.WithName(eventType))
		b.signals[eventType] = sig
	}
	return sig
}

// generateID creates a unique subscription ID.
func (b *Bus) generateID() string {
	b.nextID++
	return "sub-" + strconv.FormatUint(b.nextID, 10)
}

// Clear removes all subscriptions. Publishing in progress stops delivering.
func (b *Bus) Clear() {
	for _, sig := range b.signals {
		sig.DisconnectAll()
	}
	b.subscriptions = make(map[string]subscription)
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	count := 0
	for _, sig := range b.signals {
		count += sig.Len()
	}
	return count
}
