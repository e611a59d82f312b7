package platform

import (
	"context"
	"errors"
)

// ErrClipboardUnavailable is returned when the system clipboard could not be
// opened, typically because another process holds it.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Window identifies a top-level application window (HWND on Windows).
type Window uintptr

// IsZero reports whether the handle is unset.
func (w Window) IsZero() bool {
	return w == 0
}

// KeyCombo represents a keyboard key combination
type KeyCombo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Win   bool
	Key   int // Virtual key code
}

// EventType represents the type of hotkey event
type EventType int

const (
	Pressed EventType = iota
	Released
)

// Event represents a hotkey event
type Event struct {
	Type EventType
}

// Hotkey provides global hotkey detection
type Hotkey interface {
	Listen(ctx context.Context, combo KeyCombo) (<-chan Event, error)
}

// Clipboard provides clipboard text access
type Clipboard interface {
	Get() (string, error)
	Set(text string) error
}

// Keys simulates keystrokes in the focused application
type Keys interface {
	// Copy sends the platform copy chord (Ctrl+C).
	Copy() error
	// Paste sends the platform paste chord (Ctrl+V).
	Paste() error
	// SelectBack extends the selection n characters to the left
	// (Shift+Left), leaving freshly pasted text selected again.
	SelectBack(n int) error
}

// WindowManager queries and drives foreground-window focus
type WindowManager interface {
	// Foreground returns the window that currently has focus.
	Foreground() (Window, error)
	// Activate brings w to the foreground and waits, bounded by ctx, until
	// the OS reports it focused.
	Activate(ctx context.Context, w Window) error
	// Exists reports whether w still refers to a live window.
	Exists(w Window) bool
	// Title returns the window's title text, best effort.
	Title(w Window) string
	// Cursor returns the current pointer position in screen coordinates.
	Cursor() (x, y int32, err error)
}
