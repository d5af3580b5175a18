package signal

import "github.com/Iron-Ham/slotsig/internal/connlist"

// owner is the view of a Signal a Connection needs. It keeps Connection
// independent of the signal's argument type.
type owner interface {
	unlink(ref connlist.Ref) bool
	linked(ref connlist.Ref) bool
}

// noCopy makes go vet report copies of a Connection.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Connection is the handle of one subscription. It must not be copied; use
// Move or MoveTo to transfer it.
//
// A Connection is either connected or not. Once it stops being connected,
// through Disconnect, being moved from, or its signal being closed, it never
// becomes connected again.
type Connection struct {
	noCopy noCopy

	owner owner
	ref   connlist.Ref
}

// Disconnect ends the subscription. It is a no-op if the Connection is not
// connected, and it is safe to call from inside any handler, including the
// subscribed handler itself.
func (c *Connection) Disconnect() {
	if c == nil || c.owner == nil {
		return
	}
	c.owner.unlink(c.ref)
	c.reset()
}

// Connected reports whether the subscription is still active.
func (c *Connection) Connected() bool {
	return c != nil && c.owner != nil && c.owner.linked(c.ref)
}

// Move transfers the subscription to a new Connection and leaves c
// disconnected. The subscription keeps its position in the signal.
func (c *Connection) Move() *Connection {
	moved := &Connection{}
	moved.take(c)
	return moved
}

// MoveTo transfers the subscription held by c into dst. Any subscription dst
// held before is disconnected first. Moving a Connection onto itself does
// nothing.
func (c *Connection) MoveTo(dst *Connection) {
	if dst == nil || dst == c {
		return
	}
	dst.Disconnect()
	dst.take(c)
}

func (c *Connection) take(src *Connection) {
	if src == nil {
		return
	}
	if src.Connected() {
		c.owner, c.ref = src.owner, src.ref
	}
	src.reset()
}

func (c *Connection) reset() {
	c.owner = nil
	c.ref = connlist.Ref{}
}
