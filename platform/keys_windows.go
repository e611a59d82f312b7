//go:build windows

package platform

import (
	"fmt"
	"time"
	"unsafe"
)

var (
	sendInput      = user32.NewProc("SendInput")
	mapVirtualKeyW = user32.NewProc("MapVirtualKeyW")
)

const (
	inputKeyboard  = 1
	keyeventfKeyup = 0x0002
	mapvkVkToVsc   = 0

	vkControl = 0x11
	vkShiftL  = 0x10
	vkLeft    = 0x25
	vkC       = 0x43
	vkV       = 0x56
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	ki        keyboardInput
	padding   [8]byte // Padding to match C struct size
}

// WindowsKeys implements the Keys interface via SendInput
type WindowsKeys struct{}

// NewKeys creates a new Windows keystroke injector
func NewKeys() Keys {
	return &WindowsKeys{}
}

// Copy simulates Ctrl+C with scan codes for better compatibility
func (k *WindowsKeys) Copy() error {
	return sendChord(vkControl, vkC)
}

// Paste simulates Ctrl+V with scan codes for better compatibility
func (k *WindowsKeys) Paste() error {
	return sendChord(vkControl, vkV)
}

// SelectBack extends the selection n characters to the left by holding Shift
// and tapping Left. Capped at 1000 taps so a huge paste does not stall input.
func (k *WindowsKeys) SelectBack(n int) error {
	if n <= 0 {
		return nil
	}
	if n > 1000 {
		n = 1000
	}

	shiftScan, _, _ := mapVirtualKeyW.Call(vkShiftL, mapvkVkToVsc)
	leftScan, _, _ := mapVirtualKeyW.Call(vkLeft, mapvkVkToVsc)

	if err := send([]input{keyDown(vkShiftL, uint16(shiftScan))}); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := send([]input{
			keyDown(vkLeft, uint16(leftScan)),
			keyUp(vkLeft, uint16(leftScan)),
		}); err != nil {
			// Shift must not stay stuck down.
			send([]input{keyUp(vkShiftL, uint16(shiftScan))})
			return err
		}
		time.Sleep(time.Millisecond)
	}
	return send([]input{keyUp(vkShiftL, uint16(shiftScan))})
}

// sendChord presses modifier+key and releases in reverse order, as a single
// SendInput batch for better atomicity.
func sendChord(modifier, key uint16) error {
	modScan, _, _ := mapVirtualKeyW.Call(uintptr(modifier), mapvkVkToVsc)
	keyScan, _, _ := mapVirtualKeyW.Call(uintptr(key), mapvkVkToVsc)

	inputs := []input{
		keyDown(modifier, uint16(modScan)),
		keyDown(key, uint16(keyScan)),
		keyUp(key, uint16(keyScan)),
		keyUp(modifier, uint16(modScan)),
	}
	if err := send(inputs); err != nil {
		return err
	}

	// Small delay to ensure input is processed
	time.Sleep(20 * time.Millisecond)
	return nil
}

func keyDown(vk, scan uint16) input {
	return input{
		inputType: inputKeyboard,
		ki: keyboardInput{
			wVk:   vk,
			wScan: scan,
		},
	}
}

func keyUp(vk, scan uint16) input {
	return input{
		inputType: inputKeyboard,
		ki: keyboardInput{
			wVk:     vk,
			wScan:   scan,
			dwFlags: keyeventfKeyup,
		},
	}
}

func send(inputs []input) error {
	ret, _, err := sendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if ret != uintptr(len(inputs)) {
		return fmt.Errorf("SendInput failed: %w", err)
	}
	return nil
}
