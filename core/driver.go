package core

import (
	"context"
	"time"
)

// Driver is the automation capability executing GUI primitives against the
// controlled surface. When no driver is available the interpreter runs in
// headless mode and simulates these calls instead.
//
// Cancellation is cooperative: an input event already dispatched to the OS or
// browser is not rolled back.
type Driver interface {
	// Click presses and releases the given mouse button at (x, y).
	Click(ctx context.Context, x, y float64, button string, clicks int) error

	// MoveTo moves the pointer to (x, y) without clicking.
	MoveTo(ctx context.Context, x, y float64) error

	// TypeText types the text into the focused element, pausing interval
	// between keystrokes.
	TypeText(ctx context.Context, text string, interval time.Duration) error

	// KeyPress presses each named key in order, repeated presses times.
	KeyPress(ctx context.Context, keys []string, presses int, interval time.Duration) error

	// Hotkey holds the leading modifier keys and strikes the final key,
	// e.g. ("ctrl", "s"). Keys are passed variadically, never as one list.
	Hotkey(ctx context.Context, keys ...string) error
}

// URLOpener is an optional driver capability. When the active driver drives a
// browser surface, open_url navigates the driven tab instead of spawning an
// external browser.
type URLOpener interface {
	OpenURL(ctx context.Context, url string) error
}
