// Package inject writes replacement text back into the source application
// and remembers what it replaced so the paste can be undone.
package inject

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"markestedt/snipai/capture"
	"markestedt/snipai/platform"
)

// ErrWindowGone means the paste/undo target window no longer exists or
// refused to come to the foreground.
var ErrWindowGone = errors.New("target window gone")

// ErrSelectionLost means no selection was found when snapshotting the
// pre-paste text. Pasting anyway would leave nothing to undo, so the
// operation aborts before mutating the target.
var ErrSelectionLost = errors.New("pre-paste selection not found")

// Record holds the text a paste replaced and the window it was pasted into.
type Record struct {
	Prior  string
	Window platform.Window
}

// Executor performs paste and undo against the source window. All clipboard
// traffic goes through the guard, so the user's clipboard survives intact.
type Executor struct {
	guard        *capture.Guard
	capturer     *capture.Capturer
	keys         platform.Keys
	windows      platform.WindowManager
	focusTimeout time.Duration
	settle       time.Duration
}

// NewExecutor creates an executor. focusTimeout bounds the wait for the
// target window to report itself foregrounded; settle is the pause given to
// the target to consume the paste before the clipboard is restored.
func NewExecutor(guard *capture.Guard, capturer *capture.Capturer, keys platform.Keys, windows platform.WindowManager, focusTimeout, settle time.Duration) *Executor {
	return &Executor{
		guard:        guard,
		capturer:     capturer,
		keys:         keys,
		windows:      windows,
		focusTimeout: focusTimeout,
		settle:       settle,
	}
}

// Paste replaces the current selection in target with text and returns a
// Record of what was there before, for the undo slot. Nothing is mutated
// unless the pre-paste snapshot succeeds first.
func (e *Executor) Paste(ctx context.Context, target platform.Window, text string) (Record, error) {
	if err := e.focus(ctx, target); err != nil {
		return Record{}, err
	}

	prior, err := e.capturer.Capture(ctx, target)
	if errors.Is(err, capture.ErrNoSelection) {
		return Record{}, ErrSelectionLost
	}
	if err != nil {
		return Record{}, fmt.Errorf("pre-paste snapshot failed: %w", err)
	}

	if err := e.inject(text); err != nil {
		return Record{}, err
	}

	return Record{Prior: prior.Text, Window: target}, nil
}

// Restore replays a Record's prior text into its window. Unlike Paste it
// takes no pre-mutation snapshot; the caller is unwinding, not stacking.
func (e *Executor) Restore(ctx context.Context, rec Record) error {
	if err := e.focus(ctx, rec.Window); err != nil {
		return err
	}
	return e.inject(rec.Prior)
}

func (e *Executor) focus(ctx context.Context, target platform.Window) error {
	if !e.windows.Exists(target) {
		return ErrWindowGone
	}

	fctx, cancel := context.WithTimeout(ctx, e.focusTimeout)
	defer cancel()

	if err := e.windows.Activate(fctx, target); err != nil {
		return fmt.Errorf("%w: %v", ErrWindowGone, err)
	}
	return nil
}

// inject writes text via the guarded clipboard, sends the paste chord, then
// re-selects the pasted range so a follow-up paste or undo still targets it.
func (e *Executor) inject(text string) error {
	err := e.guard.With(func(clip platform.Clipboard) error {
		if err := clip.Set(text); err != nil {
			return fmt.Errorf("failed to set clipboard: %w", err)
		}

		// Give the clipboard a moment before the target reads it.
		time.Sleep(50 * time.Millisecond)

		if err := e.keys.Paste(); err != nil {
			return fmt.Errorf("failed to send paste keystroke: %w", err)
		}

		// The target reads the clipboard on its own schedule; restoring
		// too early would paste the user's old contents instead.
		time.Sleep(e.settle)
		return nil
	})
	if err != nil {
		return err
	}

	if err := e.keys.SelectBack(utf8.RuneCountInString(text)); err != nil {
		return fmt.Errorf("failed to re-select pasted text: %w", err)
	}
	return nil
}
