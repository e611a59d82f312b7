package inject

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markestedt/snipai/capture"
	"markestedt/snipai/platform"
)

type fakeClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *fakeClipboard) Get() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, nil
}

func (c *fakeClipboard) Set(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func (c *fakeClipboard) current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// fakeApp models the target application's selected text field. Copy puts the
// selection on the clipboard; Paste replaces the selection with the
// clipboard, exactly like a real edit control.
type fakeApp struct {
	clip       *fakeClipboard
	selection  string
	selectBack []int
}

func (a *fakeApp) Copy() error {
	if a.selection != "" {
		a.clip.Set(a.selection)
	}
	return nil
}

func (a *fakeApp) Paste() error {
	text, _ := a.clip.Get()
	a.selection = text
	return nil
}

func (a *fakeApp) SelectBack(n int) error {
	a.selectBack = append(a.selectBack, n)
	return nil
}

type fakeWindows struct {
	live       map[platform.Window]bool
	foreground platform.Window
}

func (w *fakeWindows) Foreground() (platform.Window, error) { return w.foreground, nil }

func (w *fakeWindows) Activate(ctx context.Context, win platform.Window) error {
	if !w.live[win] {
		return context.DeadlineExceeded
	}
	w.foreground = win
	return nil
}

func (w *fakeWindows) Exists(win platform.Window) bool { return w.live[win] }
func (w *fakeWindows) Title(platform.Window) string    { return "Editor" }
func (w *fakeWindows) Cursor() (int32, int32, error)   { return 0, 0, nil }

type harness struct {
	clip     *fakeClipboard
	app      *fakeApp
	windows  *fakeWindows
	executor *Executor
}

func newHarness(selection string) *harness {
	clip := &fakeClipboard{text: "user clipboard"}
	app := &fakeApp{clip: clip, selection: selection}
	windows := &fakeWindows{live: map[platform.Window]bool{1: true}}
	guard := capture.NewGuard(clip)
	capturer := capture.NewCapturer(guard, app, 200*time.Millisecond, 5*time.Millisecond, 1)
	executor := NewExecutor(guard, capturer, app, windows, 100*time.Millisecond, time.Millisecond)

	return &harness{clip: clip, app: app, windows: windows, executor: executor}
}

func TestPasteReplacesSelectionAndReturnsPrior(t *testing.T) {
	h := newHarness("teh quick fox")

	rec, err := h.executor.Paste(context.Background(), platform.Window(1), "the quick fox")

	require.NoError(t, err)
	assert.Equal(t, "teh quick fox", rec.Prior)
	assert.Equal(t, platform.Window(1), rec.Window)
	assert.Equal(t, "the quick fox", h.app.selection)
	assert.Equal(t, "user clipboard", h.clip.current(), "external clipboard must survive the paste")
	require.NotEmpty(t, h.app.selectBack)
	assert.Equal(t, len("the quick fox"), h.app.selectBack[len(h.app.selectBack)-1],
		"pasted range must be re-selected for follow-up operations")
}

func TestPasteWindowGone(t *testing.T) {
	h := newHarness("some text")
	h.windows.live = map[platform.Window]bool{}

	_, err := h.executor.Paste(context.Background(), platform.Window(1), "replacement")

	assert.ErrorIs(t, err, ErrWindowGone)
	assert.Equal(t, "some text", h.app.selection, "failed paste must not mutate the target")
	assert.Equal(t, "user clipboard", h.clip.current())
}

func TestPasteSelectionLost(t *testing.T) {
	h := newHarness("")

	_, err := h.executor.Paste(context.Background(), platform.Window(1), "replacement")

	assert.ErrorIs(t, err, ErrSelectionLost)
	assert.Equal(t, "", h.app.selection)
	assert.Equal(t, "user clipboard", h.clip.current())
}

func TestUndoRoundTrip(t *testing.T) {
	h := newHarness("teh quick fox")
	ctx := context.Background()

	rec, err := h.executor.Paste(ctx, platform.Window(1), "the quick fox")
	require.NoError(t, err)
	require.Equal(t, "the quick fox", h.app.selection)

	require.NoError(t, h.executor.Restore(ctx, rec))

	assert.Equal(t, "teh quick fox", h.app.selection, "undo must restore the pre-paste text verbatim")
	assert.Equal(t, "user clipboard", h.clip.current())
}

func TestRestoreWindowGone(t *testing.T) {
	h := newHarness("anything")
	rec := Record{Prior: "old", Window: platform.Window(9)}

	err := h.executor.Restore(context.Background(), rec)

	assert.ErrorIs(t, err, ErrWindowGone)
}
