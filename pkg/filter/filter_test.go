package filter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lumetta/hilight/pkg/ansi"
	"github.com/lumetta/hilight/pkg/highlight"
)

func newTestHighlighter(t *testing.T) *highlight.Highlighter {
	t.Helper()
	h := highlight.New(ansi.Color{})
	if err := h.AddPattern("ERROR", ansi.Fg(196)); err != nil {
		t.Fatalf("AddPattern failed: %v", err)
	}
	return h
}

func TestRun(t *testing.T) {
	code := ansi.Code(ansi.Fg(196))

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "no matches",
			input:    "all quiet\nnothing here\n",
			expected: "all quiet\nnothing here\n",
		},
		{
			name:     "match in one line",
			input:    "ok\nan ERROR happened\nok\n",
			expected: "ok\nan " + code + "ERROR" + ansi.Reset() + " happened\nok\n",
		},
		{
			name:     "trailing line without newline",
			input:    "ok\nfinal ERROR",
			expected: "ok\nfinal " + code + "ERROR" + ansi.Reset(),
		},
		{
			name:     "empty lines preserved",
			input:    "\n\nERROR\n\n",
			expected: "\n\n" + code + "ERROR" + ansi.Reset() + "\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := Run(&out, strings.NewReader(tt.input), newTestHighlighter(t)); err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if got := out.String(); got != tt.expected {
				t.Errorf("output = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWriter_PartialWrites(t *testing.T) {
	var out bytes.Buffer
	fw := NewWriter(&out, newTestHighlighter(t))

	// A match split across writes must still be seen once the line
	// completes.
	for _, chunk := range []string{"an ER", "ROR hap", "pened\nnext"} {
		if _, err := fw.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	code := ansi.Code(ansi.Fg(196))
	wantLine := "an " + code + "ERROR" + ansi.Reset() + " happened\n"
	if got := out.String(); got != wantLine {
		t.Errorf("after writes, output = %q, want %q", got, wantLine)
	}

	if err := fw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := out.String(); got != wantLine+"next" {
		t.Errorf("after Close, output = %q, want %q", got, wantLine+"next")
	}
}

func TestWriter_CloseWithEmptyBuffer(t *testing.T) {
	var out bytes.Buffer
	fw := NewWriter(&out, newTestHighlighter(t))

	if err := fw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Close on empty buffer wrote %q", out.String())
	}
}

func TestRun_LineLocalMatching(t *testing.T) {
	h := newTestHighlighter(t)

	// Feeding the whole buffer and feeding line by line must agree.
	input := "one ERROR\ntwo\nthree ERROR\n"

	var whole bytes.Buffer
	if err := Run(&whole, strings.NewReader(input), h); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var piecewise bytes.Buffer
	fw := NewWriter(&piecewise, h)
	for _, line := range strings.SplitAfter(input, "\n") {
		if _, err := fw.Write([]byte(line)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if whole.String() != piecewise.String() {
		t.Errorf("whole-buffer output %q differs from line-by-line output %q", whole.String(), piecewise.String())
	}
}
