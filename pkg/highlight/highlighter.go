// Package highlight wraps regex matches in text with ANSI color escape
// sequences. Matches from different patterns may overlap; the output
// preserves every original character exactly once.
package highlight

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lumetta/hilight/pkg/ansi"
)

// PatternError reports a pattern string that failed to compile as a
// regular expression.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// registration binds one compiled pattern to a color. Registration order is
// significant: it breaks ties between events at the same text offset.
type registration struct {
	re    *regexp.Regexp
	color ansi.Color
}

// Highlighter holds an ordered list of pattern registrations and a default
// color. Register all patterns first, then call Highlight as often as
// needed; registration must not run concurrently with Highlight.
type Highlighter struct {
	defaultColor  ansi.Color
	registrations []registration
}

// New returns a Highlighter whose patterns fall back to defaultColor when
// registered without an explicit color.
func New(defaultColor ansi.Color) *Highlighter {
	return &Highlighter{defaultColor: defaultColor}
}

// AddPattern compiles pattern and appends it to the registration list. A
// zero-value color binds the highlighter's default color at registration
// time. On a compile failure AddPattern returns a *PatternError and leaves
// the registration list untouched.
func (h *Highlighter) AddPattern(pattern string, color ansi.Color) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return &PatternError{Pattern: pattern, Err: err}
	}
	h.AddRegexp(re, color)
	return nil
}

// AddRegexp appends an already-compiled pattern to the registration list. A
// zero-value color binds the highlighter's default color.
func (h *Highlighter) AddRegexp(re *regexp.Regexp, color ansi.Color) {
	if color.Zero() {
		color = h.defaultColor
	}
	h.registrations = append(h.registrations, registration{re: re, color: color})
}

// Len returns the number of registered patterns.
func (h *Highlighter) Len() int { return len(h.registrations) }

// event is one color-change insertion point: emit code at offset. The reset
// and order fields only make the final sort deterministic.
type event struct {
	offset int
	code   string
	reset  bool
	order  int
}

// eventKey deduplicates events so that two spans producing the same code at
// the same offset insert it once.
type eventKey struct {
	offset int
	code   string
}

// Highlight returns text with the activation code of each matching
// registration inserted at the start of every matched span and the reset
// code at its end. A pattern with capture groups colors only the group
// spans; a pattern without groups colors the whole match. Spans from
// different patterns may overlap; insertion happens as point events sorted
// by offset, so one insertion never shifts the offsets of another.
func (h *Highlighter) Highlight(text string) string {
	if len(h.registrations) == 0 {
		return text
	}

	seen := make(map[eventKey]event)
	record := func(offset int, code string, isReset bool, order int) {
		key := eventKey{offset: offset, code: code}
		if prev, ok := seen[key]; ok && prev.order <= order {
			return
		}
		seen[key] = event{offset: offset, code: code, reset: isReset, order: order}
	}

	for order, reg := range h.registrations {
		code := ansi.Code(reg.color)
		for _, m := range reg.re.FindAllStringSubmatchIndex(text, -1) {
			for _, span := range spansOf(reg.re, m) {
				record(span[0], code, false, order)
				record(span[1], ansi.Reset(), true, order)
			}
		}
	}

	if len(seen) == 0 {
		return text
	}

	events := make([]event, 0, len(seen))
	for _, ev := range seen {
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.offset != b.offset {
			return a.offset < b.offset
		}
		// A span ending exactly where another begins must reset before
		// the new activation, or the reset would cancel it.
		if a.reset != b.reset {
			return a.reset
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.code < b.code
	})

	var b strings.Builder
	b.Grow(len(text) + len(events)*len(ansi.Reset()))
	last := 0
	for _, ev := range events {
		b.WriteString(text[last:ev.offset])
		b.WriteString(ev.code)
		last = ev.offset
	}
	b.WriteString(text[last:])
	return b.String()
}

// spansOf returns the spans to color for one match: the capture group
// spans when the pattern defines groups, otherwise the whole match. Groups
// that did not participate in the match are skipped.
func spansOf(re *regexp.Regexp, m []int) [][2]int {
	if re.NumSubexp() == 0 {
		return [][2]int{{m[0], m[1]}}
	}

	spans := make([][2]int, 0, re.NumSubexp())
	for g := 1; g <= re.NumSubexp(); g++ {
		start, end := m[2*g], m[2*g+1]
		if start < 0 {
			continue
		}
		spans = append(spans, [2]int{start, end})
	}
	return spans
}
