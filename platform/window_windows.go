//go:build windows

package platform

import (
	"context"
	"fmt"
	"time"
	"unicode/utf16"
	"unsafe"
)

var (
	getForegroundWindow = user32.NewProc("GetForegroundWindow")
	setForegroundWindow = user32.NewProc("SetForegroundWindow")
	isWindow            = user32.NewProc("IsWindow")
	getWindowTextW      = user32.NewProc("GetWindowTextW")
	getCursorPos        = user32.NewProc("GetCursorPos")
)

// WindowsWindowManager implements the WindowManager interface for Windows
type WindowsWindowManager struct{}

// NewWindowManager creates a new Windows window manager
func NewWindowManager() WindowManager {
	return &WindowsWindowManager{}
}

// Foreground returns the currently focused window
func (m *WindowsWindowManager) Foreground() (Window, error) {
	h, _, _ := getForegroundWindow.Call()
	if h == 0 {
		return 0, fmt.Errorf("no foreground window")
	}
	return Window(h), nil
}

// Activate brings w to the foreground and polls until the OS reports it
// focused. SetForegroundWindow is advisory; the target may refuse or take a
// few frames to settle, so success is verified rather than assumed.
func (m *WindowsWindowManager) Activate(ctx context.Context, w Window) error {
	if !m.Exists(w) {
		return fmt.Errorf("window %#x no longer exists", uintptr(w))
	}

	setForegroundWindow.Call(uintptr(w))

	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()

	for {
		fg, _, _ := getForegroundWindow.Call()
		if Window(fg) == w {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("window %#x did not come to foreground: %w", uintptr(w), ctx.Err())
		case <-ticker.C:
			setForegroundWindow.Call(uintptr(w))
		}
	}
}

// Exists reports whether w still refers to a live window
func (m *WindowsWindowManager) Exists(w Window) bool {
	if w.IsZero() {
		return false
	}
	r, _, _ := isWindow.Call(uintptr(w))
	return r != 0
}

// Title returns the window's title text, or "" if it cannot be read
func (m *WindowsWindowManager) Title(w Window) string {
	var buf [256]uint16
	n, _, _ := getWindowTextW.Call(uintptr(w), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return string(utf16.Decode(buf[:n]))
}

// Cursor returns the pointer position in screen coordinates
func (m *WindowsWindowManager) Cursor() (int32, int32, error) {
	var pt struct{ x, y int32 }
	r, _, err := getCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if r == 0 {
		return 0, 0, fmt.Errorf("GetCursorPos failed: %w", err)
	}
	return pt.x, pt.y, nil
}
