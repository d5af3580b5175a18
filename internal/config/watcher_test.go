package config

import (
	"bytes"
	"context"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/slotsig/internal/logging"
)

func TestWatcher_Reload(t *testing.T) {
	path := writeConfig(t, "trace:\n  color: never\n")

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer func() { _ = w.Close() }()

	if w.Current().Trace.Color != "never" {
		t.Fatalf("Current().Trace.Color = %q, want never", w.Current().Trace.Color)
	}

	var events []ChangeEvent
	w.Changed.Connect(func(ev ChangeEvent) {
		events = append(events, ev)
	})

	// Unchanged content does not fire.
	if w.Reload() {
		t.Error("Reload() of unchanged file should report no change")
	}

	if err := os.WriteFile(path, []byte("trace:\n  color: always\n  show_depth: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !w.Reload() {
		t.Fatal("Reload() should report a change")
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if !slices.Equal(ev.Changed, []string{"trace.color", "trace.show_depth"}) {
		t.Errorf("Changed = %v", ev.Changed)
	}
	if ev.Old.Trace.Color != "never" || ev.New.Trace.Color != "always" {
		t.Errorf("Old/New = %q/%q, want never/always", ev.Old.Trace.Color, ev.New.Trace.Color)
	}
	if w.Current() != ev.New {
		t.Error("Current() should return the reloaded config")
	}
}

func TestWatcher_InvalidReloadKeepsCurrent(t *testing.T) {
	path := writeConfig(t, "scenario:\n  max_depth: 4\n")

	var buf bytes.Buffer
	w, err := NewWatcher(path, logging.NewWriterLogger(&buf, logging.LevelWarn))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer func() { _ = w.Close() }()

	w.Changed.Connect(func(ChangeEvent) {
		t.Error("Changed should not fire for an invalid file")
	})

	if err := os.WriteFile(path, []byte("scenario:\n  max_depth: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if w.Reload() {
		t.Error("Reload() of invalid file should report no change")
	}
	if w.Current().Scenario.MaxDepth != 4 {
		t.Errorf("Current().Scenario.MaxDepth = %d, want 4", w.Current().Scenario.MaxDepth)
	}
	if !strings.Contains(buf.String(), "config reload failed") {
		t.Errorf("expected reload failure to be logged, got %q", buf.String())
	}
}

func TestWatcher_HandlerDisconnectsDuringReload(t *testing.T) {
	path := writeConfig(t, "trace:\n  color: never\n")

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer func() { _ = w.Close() }()

	calls := 0
	var once = w.Changed.Connect(func(ChangeEvent) {
		calls++
	})
	w.Changed.Connect(func(ChangeEvent) {
		once.Disconnect()
	})

	for _, color := range []string{"always", "auto"} {
		if err := os.WriteFile(path, []byte("trace:\n  color: "+color+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		w.Reload()
	}

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWatcher_Run(t *testing.T) {
	path := writeConfig(t, "trace:\n  color: never\n")

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	changes := make(chan ChangeEvent, 4)
	w.Changed.Connect(func(ev ChangeEvent) {
		changes <- ev
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
		_ = w.Close()
	}()

	if err := os.WriteFile(path, []byte("trace:\n  color: always\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-changes:
		if ev.New.Trace.Color != "always" {
			t.Errorf("New.Trace.Color = %q, want always", ev.New.Trace.Color)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestNewWatcher_InvalidFile(t *testing.T) {
	path := writeConfig(t, "trace:\n  color: rainbow\n")

	if _, err := NewWatcher(path, nil); err == nil {
		t.Error("NewWatcher() should fail for an invalid config")
	}
}
