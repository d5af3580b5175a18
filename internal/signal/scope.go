package signal

// Scope owns a set of Connections and disconnects them together. It stands
// in for destructor-driven cleanup: a component collects its subscriptions in
// a Scope and closes the Scope when it goes away.
//
// The zero value is ready to use. A Scope is not safe for concurrent use.
type Scope struct {
	conns  []*Connection
	closed bool
}

// Add takes ownership of conn by moving it into the scope. The returned
// Connection is the one the scope owns; conn is left disconnected. Adding to
// a closed scope disconnects conn immediately.
func (sc *Scope) Add(conn *Connection) *Connection {
	owned := conn.Move()
	if sc.closed {
		owned.Disconnect()
		return owned
	}
	sc.conns = append(sc.conns, owned)
	return owned
}

// Len returns how many of the scope's connections are still connected.
func (sc *Scope) Len() int {
	n := 0
	for _, c := range sc.conns {
		if c.Connected() {
			n++
		}
	}
	return n
}

// Close disconnects every connection in the scope. Later calls to Add
// disconnect immediately.
func (sc *Scope) Close() {
	conns := sc.conns
	sc.conns = nil
	sc.closed = true
	for _, c := range conns {
		c.Disconnect()
	}
}
