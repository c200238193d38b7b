// Package demo prints the 256-color palette listings and hosts the color
// cache stress harness.
package demo

import (
	"fmt"
	"io"
	"strings"

	"github.com/lumetta/hilight/pkg/ansi"
)

// Rainbow writes one line per palette entry, the index centered on a
// background swatch of that color.
func Rainbow(w io.Writer) {
	for c := 0; c <= 255; c++ {
		cell := center(fmt.Sprintf("%d", c), 3)
		fmt.Fprintf(w, "%s%s%s\n", ansi.Code(ansi.FgBg(0, uint8(c))), cell, ansi.Reset())
	}
}

// Palette writes one line per palette entry, the index followed by a
// sample colored in that foreground.
func Palette(w io.Writer) {
	for c := 0; c <= 255; c++ {
		fmt.Fprintf(w, "%3d: %s-=-%s\n", c, ansi.Code(ansi.Fg(uint8(c))), ansi.Reset())
	}
}

// Stress looks up every palette foreground iters times, exercising the
// color-code cache.
func Stress(iters int) {
	for i := 0; i < iters; i++ {
		for c := 0; c <= 255; c++ {
			ansi.Code(ansi.Fg(uint8(c)))
		}
	}
}

// center pads s with spaces to width, favoring the right side when the
// padding is odd.
func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	right := width - len(s) - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}
