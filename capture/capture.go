package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"markestedt/snipai/platform"
)

// ErrNoSelection means the clipboard never changed after the simulated copy:
// nothing was selected, or the selection was whitespace only.
var ErrNoSelection = errors.New("no selection detected")

// Result is the text captured from the user's selection plus the window it
// came from, which paste and undo later re-target.
type Result struct {
	Text   string
	Source platform.Window
}

// Capturer extracts the selected text from a window by simulating the copy
// chord and waiting for the clipboard to pick up the result.
type Capturer struct {
	guard        *Guard
	keys         platform.Keys
	timeout      time.Duration
	pollInterval time.Duration
	retries      int
}

// NewCapturer creates a capturer. timeout bounds the post-copy clipboard
// poll; retries bounds attempts when the clipboard cannot be opened.
func NewCapturer(guard *Guard, keys platform.Keys, timeout, pollInterval time.Duration, retries int) *Capturer {
	if retries < 1 {
		retries = 1
	}
	return &Capturer{
		guard:        guard,
		keys:         keys,
		timeout:      timeout,
		pollInterval: pollInterval,
		retries:      retries,
	}
}

// Capture returns the text currently selected in source. The caller's
// clipboard contents are untouched on every path, success or failure.
//
// Attempts that fail because another process holds the clipboard are retried
// with exponential backoff before the error is surfaced.
func (c *Capturer) Capture(ctx context.Context, source platform.Window) (Result, error) {
	backoff := 100 * time.Millisecond
	var lastErr error

	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, err := c.attempt(ctx)
		if err == nil {
			return Result{Text: text, Source: source}, nil
		}
		if !errors.Is(err, platform.ErrClipboardUnavailable) {
			return Result{}, err
		}
		lastErr = err
	}

	return Result{}, fmt.Errorf("capture failed after %d attempts: %w", c.retries, lastErr)
}

// attempt runs one guarded copy-and-poll pass. The clipboard is cleared
// inside the guard first, so the poll watches for any non-empty text rather
// than diffing against the previous contents. That also catches the case
// where the selection happens to equal what the clipboard already held.
func (c *Capturer) attempt(ctx context.Context) (string, error) {
	var captured string

	err := c.guard.With(func(clip platform.Clipboard) error {
		if err := clip.Set(""); err != nil {
			return fmt.Errorf("failed to clear clipboard: %w", err)
		}

		if err := c.keys.Copy(); err != nil {
			return fmt.Errorf("failed to send copy keystroke: %w", err)
		}

		// The target application's copy handler runs asynchronously
		// relative to the injected keystroke; poll until it lands.
		deadline := time.Now().Add(c.timeout)
		for {
			text, err := clip.Get()
			if err != nil {
				return fmt.Errorf("failed to read clipboard: %w", err)
			}
			if strings.TrimSpace(text) != "" {
				captured = text
				return nil
			}

			if time.Now().After(deadline) {
				return ErrNoSelection
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.pollInterval):
			}
		}
	})
	if err != nil {
		return "", err
	}
	return captured, nil
}
