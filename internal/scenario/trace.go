package scenario

import (
	"fmt"
	"strings"
)

// Entry is one line of a run trace: either a handler call or a label
// written by a record action.
type Entry struct {
	Handler string
	Arg     int
	Depth   int
	Label   string
}

// IsLabel reports whether the entry was written by a record action.
func (e Entry) IsLabel() bool {
	return e.Label != ""
}

// String formats the entry without depth, e.g. "h1(3)".
func (e Entry) String() string {
	if e.IsLabel() {
		return e.Label
	}
	return fmt.Sprintf("%s(%d)", e.Handler, e.Arg)
}

// DepthString formats the entry with depth, e.g. "h1@2(3)".
func (e Entry) DepthString() string {
	if e.IsLabel() {
		return e.Label
	}
	return fmt.Sprintf("%s@%d(%d)", e.Handler, e.Depth, e.Arg)
}

// Matches reports whether the expectation line want describes e. A line
// containing "@" is compared including depth.
func (e Entry) Matches(want string) bool {
	want = strings.TrimSpace(want)
	if !e.IsLabel() && strings.Contains(want, "@") {
		return want == e.DepthString()
	}
	return want == e.String()
}

// Trace is the ordered record of one run.
type Trace []Entry

// Strings formats every entry, with or without depth.
func (t Trace) Strings(withDepth bool) []string {
	out := make([]string, len(t))
	for i, e := range t {
		if withDepth {
			out[i] = e.DepthString()
		} else {
			out[i] = e.String()
		}
	}
	return out
}

// Calls returns the number of handler calls in the trace.
func (t Trace) Calls() int {
	n := 0
	for _, e := range t {
		if !e.IsLabel() {
			n++
		}
	}
	return n
}

// Compare checks the trace against expected lines. It returns the index of
// the first mismatch and a description, or -1 and "" when they agree.
func (t Trace) Compare(expected []string) (int, string) {
	for i, want := range expected {
		if i >= len(t) {
			return i, fmt.Sprintf("entry %d: want %s, trace ended", i, strings.TrimSpace(want))
		}
		if !t[i].Matches(want) {
			return i, fmt.Sprintf("entry %d: want %s, got %s", i, strings.TrimSpace(want), t[i].DepthString())
		}
	}
	if len(t) > len(expected) {
		return len(expected), fmt.Sprintf("entry %d: unexpected %s", len(expected), t[len(expected)].DepthString())
	}
	return -1, ""
}
