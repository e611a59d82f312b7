package capture

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markestedt/snipai/platform"
)

type fakeClipboard struct {
	mu       sync.Mutex
	text     string
	getErrs  []error
	setErrs  []error
	getCalls int
	setCalls int
}

func (c *fakeClipboard) Get() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	if len(c.getErrs) > 0 {
		err := c.getErrs[0]
		c.getErrs = c.getErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return c.text, nil
}

func (c *fakeClipboard) Set(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCalls++
	if len(c.setErrs) > 0 {
		err := c.setErrs[0]
		c.setErrs = c.setErrs[1:]
		if err != nil {
			return err
		}
	}
	c.text = text
	return nil
}

func (c *fakeClipboard) current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

func (c *fakeClipboard) force(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
}

func TestGuardRestoresOnSuccess(t *testing.T) {
	clip := &fakeClipboard{text: "user data"}
	guard := NewGuard(clip)

	err := guard.With(func(c platform.Clipboard) error {
		return c.Set("scratch")
	})

	require.NoError(t, err)
	assert.Equal(t, "user data", clip.current())
}

func TestGuardRestoresOnError(t *testing.T) {
	clip := &fakeClipboard{text: "user data"}
	guard := NewGuard(clip)

	boom := errors.New("boom")
	err := guard.With(func(c platform.Clipboard) error {
		c.Set("scratch")
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, "user data", clip.current())
}

func TestGuardRejectsNestedScope(t *testing.T) {
	clip := &fakeClipboard{text: "user data"}
	guard := NewGuard(clip)

	var nested error
	err := guard.With(func(c platform.Clipboard) error {
		nested = guard.With(func(platform.Clipboard) error { return nil })
		return nil
	})

	require.NoError(t, err)
	assert.ErrorIs(t, nested, ErrConcurrentAccess)
	assert.Equal(t, "user data", clip.current())
}

func TestGuardSnapshotFailureSurfaces(t *testing.T) {
	clip := &fakeClipboard{text: "user data", getErrs: []error{platform.ErrClipboardUnavailable}}
	guard := NewGuard(clip)

	err := guard.With(func(platform.Clipboard) error { return nil })
	assert.ErrorIs(t, err, platform.ErrClipboardUnavailable)
}
