package signal

import "testing"

func TestScope_Close(t *testing.T) {
	a := New[int]()
	b := New[string]()
	rec := &recorder{}

	var sc Scope
	sc.Add(a.Connect(func(int) { rec.add("a") }))
	sc.Add(b.Connect(func(string) { rec.add("b") }))
	outside := a.Connect(func(int) { rec.add("outside") })

	if sc.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", sc.Len())
	}

	sc.Close()
	a.Invoke(0)
	b.Invoke("")

	assertCalls(t, rec.calls, []string{"outside"})
	if sc.Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", sc.Len())
	}
	if !outside.Connected() {
		t.Error("connection outside the scope should survive")
	}
}

func TestScope_AddMovesConnection(t *testing.T) {
	sig := New[int]()
	var sc Scope

	conn := sig.Connect(func(int) {})
	owned := sc.Add(conn)

	if conn.Connected() {
		t.Error("original handle should be left disconnected")
	}
	if !owned.Connected() {
		t.Error("scope handle should be connected")
	}

	// Disconnecting through the old handle does nothing.
	conn.Disconnect()
	if sig.Len() != 1 {
		t.Errorf("Len() = %d, want 1", sig.Len())
	}
}

func TestScope_AddAfterClose(t *testing.T) {
	sig := New[int]()
	var sc Scope
	sc.Close()

	owned := sc.Add(sig.Connect(func(int) {}))

	if owned.Connected() {
		t.Error("Add on closed scope should disconnect")
	}
	if sig.Len() != 0 {
		t.Errorf("Len() = %d, want 0", sig.Len())
	}
}

func TestScope_CloseFromHandler(t *testing.T) {
	sig := New[int]()
	rec := &recorder{}
	var sc Scope

	sc.Add(sig.Connect(func(int) {
		rec.add("h1")
		sc.Close()
	}))
	sc.Add(sig.Connect(func(int) { rec.add("h2") }))
	sig.Connect(func(int) { rec.add("h3") })

	sig.Invoke(0)
	assertCalls(t, rec.calls, []string{"h1", "h3"})
}

func TestScope_ConnectionDisconnectedElsewhere(t *testing.T) {
	sig := New[int]()
	var sc Scope

	owned := sc.Add(sig.Connect(func(int) {}))
	owned.Disconnect()

	if sc.Len() != 0 {
		t.Errorf("Len() = %d, want 0", sc.Len())
	}
	sc.Close()
}
