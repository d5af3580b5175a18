package event

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/slotsig/internal/logging"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus(nil)

	called := false
	id := bus.Subscribe("test.event", func(e Event) {
		called = true
	})

	if id == "" {
		t.Error("Subscribe should return a non-empty ID")
	}

	if bus.SubscriptionCount() != 1 {
		t.Errorf("Expected 1 subscription, got %d", bus.SubscriptionCount())
	}

	if called {
		t.Error("Handler should not be called until an event is published")
	}
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus(nil)

	var receivedEvent Event
	bus.Subscribe(TypeScenarioStarted, func(e Event) {
		receivedEvent = e
	})

	event := NewScenarioStartedEvent("run-1", "self-disconnect", 3)
	bus.Publish(event)

	if receivedEvent == nil {
		t.Fatal("Handler should have received the event")
	}

	if receivedEvent.EventType() != TypeScenarioStarted {
		t.Errorf("Expected event type '%s', got '%s'", TypeScenarioStarted, receivedEvent.EventType())
	}

	started, ok := receivedEvent.(ScenarioStartedEvent)
	if !ok {
		t.Fatalf("Expected ScenarioStartedEvent, got %T", receivedEvent)
	}
	if started.RunID != "run-1" || started.Steps != 3 {
		t.Errorf("Unexpected event payload: %+v", started)
	}
}

func TestBus_PublishMultipleHandlers(t *testing.T) {
	bus := NewBus(nil)

	callCount := 0
	bus.Subscribe("test.event", func(e Event) {
		callCount++
	})
	bus.Subscribe("test.event", func(e Event) {
		callCount++
	})

	bus.Publish(newBaseEvent("test.event"))

	if callCount != 2 {
		t.Errorf("Expected both handlers to be called, got %d calls", callCount)
	}
}

func TestBus_PublishNoMatchingHandlers(t *testing.T) {
	bus := NewBus(nil)

	bus.Subscribe("other.event", func(e Event) {
		t.Error("Handler should not be called for non-matching event type")
	})

	// This should not panic or call the handler
	bus.Publish(newBaseEvent("test.event"))
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus(nil)

	var events []string
	bus.SubscribeAll(func(e Event) {
		events = append(events, e.EventType())
	})

	bus.Publish(newBaseEvent("event.one"))
	bus.Publish(newBaseEvent("event.two"))
	bus.Publish(newBaseEvent("event.three"))

	if len(events) != 3 {
		t.Errorf("Expected 3 events, got %d", len(events))
	}

	expected := []string{"event.one", "event.two", "event.three"}
	for i, e := range expected {
		if events[i] != e {
			t.Errorf("Expected event %d to be '%s', got '%s'", i, e, events[i])
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)

	called := false
	id := bus.Subscribe("test.event", func(e Event) {
		called = true
	})

	// Unsubscribe before publishing
	removed := bus.Unsubscribe(id)
	if !removed {
		t.Error("Unsubscribe should return true when subscription exists")
	}

	if bus.SubscriptionCount() != 0 {
		t.Errorf("Expected 0 subscriptions after unsubscribe, got %d", bus.SubscriptionCount())
	}

	bus.Publish(newBaseEvent("test.event"))

	if called {
		t.Error("Handler should not be called after unsubscribing")
	}
}

func TestBus_UnsubscribeNonExistent(t *testing.T) {
	bus := NewBus(nil)

	removed := bus.Unsubscribe("non-existent-id")
	if removed {
		t.Error("Unsubscribe should return false for non-existent ID")
	}
}

func TestBus_UnsubscribeOne(t *testing.T) {
	bus := NewBus(nil)

	calls := make(map[string]int)
	id1 := bus.Subscribe("test.event", func(e Event) {
		calls["handler1"]++
	})
	bus.Subscribe("test.event", func(e Event) {
		calls["handler2"]++
	})

	// Unsubscribe only the first handler
	bus.Unsubscribe(id1)

	bus.Publish(newBaseEvent("test.event"))

	if calls["handler1"] != 0 {
		t.Error("handler1 should not be called after unsubscribing")
	}
	if calls["handler2"] != 1 {
		t.Error("handler2 should still be called")
	}
}

func TestBus_Clear(t *testing.T) {
	bus := NewBus(nil)

	bus.Subscribe("event.one", func(e Event) {})
	bus.Subscribe("event.two", func(e Event) {})
	bus.SubscribeAll(func(e Event) {})

	if bus.SubscriptionCount() != 3 {
		t.Errorf("Expected 3 subscriptions before clear, got %d", bus.SubscriptionCount())
	}

	bus.Clear()

	if bus.SubscriptionCount() != 0 {
		t.Errorf("Expected 0 subscriptions after clear, got %d", bus.SubscriptionCount())
	}
}

func TestBus_HandlerPanicRecovery(t *testing.T) {
	bus := NewBus(nil)

	calls := 0
	bus.Subscribe("test.event", func(e Event) {
		calls++
		panic("handler panic")
	})
	bus.Subscribe("test.event", func(e Event) {
		calls++
	})

	// Should not panic
	bus.Publish(newBaseEvent("test.event"))

	if calls != 2 {
		t.Errorf("Expected both handlers to be called despite panic, got %d calls", calls)
	}
}

func TestBus_MixedSubscriptions(t *testing.T) {
	bus := NewBus(nil)

	var events []string
	bus.Subscribe("specific.event", func(e Event) {
		events = append(events, "specific:"+e.EventType())
	})
	bus.SubscribeAll(func(e Event) {
		events = append(events, "wildcard:"+e.EventType())
	})

	bus.Publish(newBaseEvent("specific.event"))

	if len(events) != 2 {
		t.Errorf("Expected 2 handler calls, got %d", len(events))
	}

	// Both handlers should be called
	hasSpecific := false
	hasWildcard := false
	for _, e := range events {
		if e == "specific:specific.event" {
			hasSpecific = true
		}
		if e == "wildcard:specific.event" {
			hasWildcard = true
		}
	}

	if !hasSpecific {
		t.Error("Specific handler should have been called")
	}
	if !hasWildcard {
		t.Error("Wildcard handler should have been called")
	}
}

func TestBus_UniqueIDs(t *testing.T) {
	bus := NewBus(nil)

	ids := make(map[string]bool)
	for range 100 {
		id := bus.Subscribe("test.event", func(e Event) {})
		if ids[id] {
			t.Errorf("Duplicate subscription ID: %s", id)
		}
		ids[id] = true
	}
}

func TestBus_HandlerPanicLogged(t *testing.T) {
	var buf bytes.Buffer
	bus := NewBus(logging.NewWriterLogger(&buf, logging.LevelError))

	bus.Subscribe("test.event", func(e Event) {
		panic("boom")
	})
	bus.Publish(newBaseEvent("test.event"))

	out := buf.String()
	if !strings.Contains(out, "event handler panicked") {
		t.Errorf("Expected panic to be logged, got %q", out)
	}
	if !strings.Contains(out, `"event_type":"test.event"`) {
		t.Errorf("Expected event type in log, got %q", out)
	}
}

func TestBus_UnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus(nil)

	var calls []string
	var secondID string
	bus.Subscribe("test.event", func(e Event) {
		calls = append(calls, "first")
		bus.Unsubscribe(secondID)
	})
	secondID = bus.Subscribe("test.event", func(e Event) {
		calls = append(calls, "second")
	})
	bus.Subscribe("test.event", func(e Event) {
		calls = append(calls, "third")
	})

	bus.Publish(newBaseEvent("test.event"))

	if strings.Join(calls, ",") != "first,third" {
		t.Errorf("Expected first,third, got %v", calls)
	}
	if bus.SubscriptionCount() != 2 {
		t.Errorf("Expected 2 subscriptions, got %d", bus.SubscriptionCount())
	}
}

func TestBus_SelfUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus(nil)

	calls := 0
	var id string
	id = bus.Subscribe("test.event", func(e Event) {
		calls++
		bus.Unsubscribe(id)
	})

	bus.Publish(newBaseEvent("test.event"))
	bus.Publish(newBaseEvent("test.event"))

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestBus_PublishFromHandler(t *testing.T) {
	bus := NewBus(nil)

	var events []string
	bus.Subscribe(TypeScenarioStarted, func(e Event) {
		events = append(events, "started")
		bus.Publish(NewScenarioCompletedEvent("run-1", "demo", true, 0, time.Millisecond, ""))
		events = append(events, "started-return")
	})
	bus.Subscribe(TypeScenarioCompleted, func(e Event) {
		events = append(events, "completed")
	})
	bus.SubscribeAll(func(e Event) {
		events = append(events, "all:"+e.EventType())
	})

	bus.Publish(NewScenarioStartedEvent("run-1", "demo", 1))

	want := "started,completed,all:scenario.completed,started-return,all:scenario.started"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestBus_SubscribeDuringPublish(t *testing.T) {
	bus := NewBus(nil)

	calls := 0
	subscribed := false
	bus.Subscribe("test.event", func(e Event) {
		if !subscribed {
			subscribed = true
			bus.Subscribe("test.event", func(e Event) {
				calls++
			})
		}
	})

	bus.Publish(newBaseEvent("test.event"))

	if calls != 1 {
		t.Errorf("Handler subscribed during publish should run in the same publish, got %d calls", calls)
	}
}

func TestBus_SubscribeOnce(t *testing.T) {
	bus := NewBus(nil)

	calls := 0
	bus.SubscribeOnce("test.event", func(e Event) {
		calls++
		bus.Publish(newBaseEvent("test.event"))
	})

	bus.Publish(newBaseEvent("test.event"))
	bus.Publish(newBaseEvent("test.event"))

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if bus.SubscriptionCount() != 0 {
		t.Errorf("Expected 0 subscriptions, got %d", bus.SubscriptionCount())
	}
}

func TestBus_ClearDuringPublish(t *testing.T) {
	bus := NewBus(nil)

	calls := 0
	bus.Subscribe("test.event", func(e Event) {
		calls++
		bus.Clear()
	})
	bus.Subscribe("test.event", func(e Event) {
		calls++
	})
	bus.SubscribeAll(func(e Event) {
		calls++
	})

	bus.Publish(newBaseEvent("test.event"))

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestNewConfigChangedEvent_SortsKeys(t *testing.T) {
	changed := []string{"trace.color", "logging.level"}
	e := NewConfigChangedEvent("/tmp/config.yaml", changed)

	if e.EventType() != TypeConfigChanged {
		t.Errorf("Expected %s, got %s", TypeConfigChanged, e.EventType())
	}
	if strings.Join(e.Changed, ",") != "logging.level,trace.color" {
		t.Errorf("Expected sorted keys, got %v", e.Changed)
	}
	if changed[0] != "trace.color" {
		t.Error("Input slice should not be modified")
	}
	if e.Timestamp().IsZero() {
		t.Error("Timestamp should be set")
	}
}
