// Package ansi generates ANSI SGR escape sequences for the 256-color
// terminal palette.
package ansi

import (
	"fmt"
	"sync"
)

// Color selects a 256-color palette entry for the foreground and background
// channels. Either channel may be left unset, meaning that channel is not
// touched. The zero value sets neither channel. Color is comparable, so it
// can be used as a map key.
type Color struct {
	fg, bg       uint8
	hasFg, hasBg bool
}

// Fg returns a Color setting only the foreground channel.
func Fg(n uint8) Color { return Color{fg: n, hasFg: true} }

// Bg returns a Color setting only the background channel.
func Bg(n uint8) Color { return Color{bg: n, hasBg: true} }

// FgBg returns a Color setting both channels.
func FgBg(fg, bg uint8) Color { return Color{fg: fg, bg: bg, hasFg: true, hasBg: true} }

// Zero reports whether no channel is set.
func (c Color) Zero() bool { return !c.hasFg && !c.hasBg }

const resetCode = "\x1b[0;0;0m"

var (
	cacheMu sync.Mutex
	cache   = make(map[Color]string)
)

// Code returns the escape sequence activating c: the 38;5;n foreground
// selector followed by the 48;5;n background selector, for whichever
// channels are set, or the empty string when neither is. The sequence stays
// in effect until Reset or another color change. Results are cached by
// color value; the cache is safe for concurrent use.
func Code(c Color) string {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if code, ok := cache[c]; ok {
		return code
	}

	var code string
	if c.hasFg {
		code = fmt.Sprintf("\x1b[38;5;%dm", c.fg)
	}
	if c.hasBg {
		code += fmt.Sprintf("\x1b[48;5;%dm", c.bg)
	}
	cache[c] = code
	return code
}

// Reset returns the escape sequence clearing all SGR attributes.
func Reset() string {
	return resetCode
}
