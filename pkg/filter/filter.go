// Package filter streams text through a Highlighter line by line.
package filter

import (
	"bytes"
	"io"

	"github.com/lumetta/hilight/pkg/highlight"
)

// Writer highlights complete lines as they arrive and forwards them to the
// underlying writer. Bytes after the last newline are held until more data
// arrives or Close flushes them, so escape codes never straddle a partial
// line.
type Writer struct {
	w   io.Writer
	h   *highlight.Highlighter
	buf bytes.Buffer
}

// NewWriter returns a Writer that highlights with h and forwards to w.
func NewWriter(w io.Writer, h *highlight.Highlighter) *Writer {
	return &Writer{w: w, h: h}
}

// Write buffers p and emits every complete line, highlighted.
func (fw *Writer) Write(p []byte) (int, error) {
	fw.buf.Write(p)

	data := fw.buf.Bytes()

	// Find complete lines
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] != '\n' {
			continue
		}
		if err := fw.emit(string(data[start:i]), true); err != nil {
			return len(p), err
		}
		start = i + 1
	}

	// Keep any incomplete line in the buffer
	rest := append([]byte(nil), data[start:]...)
	fw.buf.Reset()
	fw.buf.Write(rest)

	return len(p), nil
}

// Close flushes a trailing line that had no newline. The Writer remains
// usable afterwards; Close only drains the buffer.
func (fw *Writer) Close() error {
	if fw.buf.Len() == 0 {
		return nil
	}
	line := fw.buf.String()
	fw.buf.Reset()
	return fw.emit(line, false)
}

func (fw *Writer) emit(line string, newline bool) error {
	out := fw.h.Highlight(line)
	if newline {
		out += "\n"
	}
	_, err := io.WriteString(fw.w, out)
	return err
}

// Run copies src to dst, highlighting each line with h. Matching is local
// to each line, so feeding a whole file or one line at a time produces the
// same per-line output.
func Run(dst io.Writer, src io.Reader, h *highlight.Highlighter) error {
	fw := NewWriter(dst, h)
	if _, err := io.Copy(fw, src); err != nil {
		return err
	}
	return fw.Close()
}
