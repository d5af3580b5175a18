// Package traceview renders scenario results, either as text for a
// terminal or pipe or in an interactive pager.
package traceview

import (
	"fmt"
	"strings"
	"time"

	"github.com/Iron-Ham/slotsig/internal/scenario"
	"github.com/Iron-Ham/slotsig/internal/tui/styles"
)

// Options controls how a result is formatted.
type Options struct {
	// ShowDepth prints "@depth" after each handler name.
	ShowDepth bool
	// Indent indents nested calls by their depth.
	Indent bool
}

// Format renders a result: a verdict headline, the trace, then any
// recovered panics, truncations and failed expectations.
func Format(res *scenario.Result, st *styles.Styles, opts Options) string {
	var b strings.Builder

	b.WriteString(Headline(res, st))
	b.WriteString("\n")

	for i, e := range res.Trace {
		b.WriteString(st.Muted.Render(fmt.Sprintf("%4d  ", i+1)))
		b.WriteString(FormatEntry(e, st, opts))
		b.WriteString("\n")
	}
	if len(res.Trace) == 0 {
		b.WriteString(st.Muted.Render("      (no calls)"))
		b.WriteString("\n")
	}

	for _, f := range res.Failures {
		b.WriteString(st.Warning.Render(fmt.Sprintf("recovered panic in %s at depth %d (step %d): %s",
			f.Handler, f.Depth, f.Step, f.Value)))
		b.WriteString("\n")
	}
	if res.Truncated > 0 {
		b.WriteString(st.Warning.Render(fmt.Sprintf("%d nested emission(s) skipped at the depth limit", res.Truncated)))
		b.WriteString("\n")
	}

	if !res.Passed() {
		for _, line := range strings.Split(res.Err.Error(), "\n") {
			b.WriteString(st.ErrorMsg.Render("  " + line))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// Headline renders "name PASS (n calls, duration)".
func Headline(res *scenario.Result, st *styles.Styles) string {
	verdict := st.Pass.Render("PASS")
	if !res.Passed() {
		verdict = st.Fail.Render("FAIL")
	}
	stats := fmt.Sprintf("(%d calls, %s)", res.Trace.Calls(), res.Duration.Round(time.Microsecond))
	return fmt.Sprintf("%s %s %s", st.Title.Render(res.Scenario), verdict, st.Muted.Render(stats))
}

// FormatEntry renders one trace entry.
func FormatEntry(e scenario.Entry, st *styles.Styles, opts Options) string {
	indent := ""
	if opts.Indent && e.Depth > 1 {
		indent = strings.Repeat("  ", e.Depth-1)
	}

	if e.IsLabel() {
		return indent + st.Label.Render(e.Label)
	}

	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(st.Handler.Render(e.Handler))
	if opts.ShowDepth {
		b.WriteString(st.Depth(e.Depth).Render(fmt.Sprintf("@%d", e.Depth)))
	}
	b.WriteString(st.Arg.Render(fmt.Sprintf("(%d)", e.Arg)))
	return b.String()
}

// Summary renders one headline per result followed by a pass count.
func Summary(results []*scenario.Result, st *styles.Styles) string {
	var b strings.Builder
	passed := 0
	for _, res := range results {
		if res.Passed() {
			passed++
		}
		b.WriteString(Headline(res, st))
		b.WriteString("\n")
	}

	total := fmt.Sprintf("%d/%d scenarios passed", passed, len(results))
	if passed == len(results) {
		b.WriteString(st.Pass.Render(total))
	} else {
		b.WriteString(st.Fail.Render(total))
	}
	b.WriteString("\n")
	return b.String()
}
