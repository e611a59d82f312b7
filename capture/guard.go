// Package capture obtains the user's current selection through the system
// clipboard without disturbing whatever the clipboard held beforehand.
package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"markestedt/snipai/platform"
)

// ErrConcurrentAccess is returned when a guard scope is entered while another
// is still open. The clipboard has a single owner per operation; hitting this
// is a programming fault, not a user-facing condition.
var ErrConcurrentAccess = errors.New("clipboard guard already held")

// Guard is the only component allowed to mutate the system clipboard. With
// snapshots the clipboard, runs the operation, and restores the snapshot on
// every exit path, so external clipboard contents survive capture and paste
// bit-identical.
type Guard struct {
	clip platform.Clipboard
	busy atomic.Bool
}

// NewGuard creates a guard around the given clipboard
func NewGuard(clip platform.Clipboard) *Guard {
	return &Guard{clip: clip}
}

// With runs fn inside a save/restore scope. fn receives the clipboard and may
// read and write it freely; nested With calls fail with ErrConcurrentAccess.
func (g *Guard) With(fn func(clip platform.Clipboard) error) error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrConcurrentAccess
	}
	defer g.busy.Store(false)

	saved, err := g.clip.Get()
	if err != nil {
		return fmt.Errorf("failed to snapshot clipboard: %w", err)
	}

	defer func() {
		if err := g.clip.Set(saved); err != nil {
			slog.Warn("Failed to restore clipboard", "error", err)
		}
	}()

	return fn(g.clip)
}
