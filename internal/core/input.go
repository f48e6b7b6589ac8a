package core

import (
	"fmt"
	"strings"
)

// Buttons is the digital button bitset of a controller reading.
// Bit positions follow the N64 controller layout used by the recording format.
type Buttons uint16

const (
	ButtonCRight Buttons = 0x0001
	ButtonCLeft  Buttons = 0x0002
	ButtonCDown  Buttons = 0x0004
	ButtonCUp    Buttons = 0x0008
	ButtonR      Buttons = 0x0010
	ButtonL      Buttons = 0x0020
	ButtonDRight Buttons = 0x0100
	ButtonDLeft  Buttons = 0x0200
	ButtonDDown  Buttons = 0x0400
	ButtonDUp    Buttons = 0x0800
	ButtonStart  Buttons = 0x1000
	ButtonZ      Buttons = 0x2000
	ButtonB      Buttons = 0x4000
	ButtonA      Buttons = 0x8000
)

var buttonNames = []struct {
	bit  Buttons
	name string
}{
	{ButtonA, "A"},
	{ButtonB, "B"},
	{ButtonZ, "Z"},
	{ButtonStart, "S"},
	{ButtonDUp, "DU"},
	{ButtonDDown, "DD"},
	{ButtonDLeft, "DL"},
	{ButtonDRight, "DR"},
	{ButtonL, "L"},
	{ButtonR, "R"},
	{ButtonCUp, "CU"},
	{ButtonCDown, "CD"},
	{ButtonCLeft, "CL"},
	{ButtonCRight, "CR"},
}

// Has reports whether every bit of mask is set.
func (b Buttons) Has(mask Buttons) bool {
	return b&mask == mask
}

// String returns the pressed buttons joined by '+', or "-" when none are held.
func (b Buttons) String() string {
	if b == 0 {
		return "-"
	}
	var parts []string
	for _, bn := range buttonNames {
		if b&bn.bit != 0 {
			parts = append(parts, bn.name)
		}
	}
	return strings.Join(parts, "+")
}

// Input is a single frame of controller state.
// It is a plain value: copies are independent and the zero value is neutral.
type Input struct {
	Buttons Buttons
	StickX  int8
	StickY  int8
}

// NewInput creates an input from buttons and raw stick coordinates.
func NewInput(buttons Buttons, x, y int8) Input {
	return Input{Buttons: buttons, StickX: x, StickY: y}
}

// IsNeutral reports whether no button is held and the stick is centered.
func (in Input) IsNeutral() bool {
	return in == Input{}
}

// WithButtons returns a copy of the input with the given buttons.
func (in Input) WithButtons(b Buttons) Input {
	in.Buttons = b
	return in
}

// String returns a compact human-readable form, e.g. "B (32,-127)".
func (in Input) String() string {
	return fmt.Sprintf("%s (%d,%d)", in.Buttons, in.StickX, in.StickY)
}
