package common

import (
	"fmt"
	"strings"
)

// Mode identifies one of the appliance's primary operating modes.  The
// integer value is the wire code.
type Mode uint8

const (
	// ModeUnknown is the zero value, no mode has been asserted yet
	ModeUnknown Mode = 0
	// ModeCapture follows the video capture input
	ModeCapture Mode = 1
	// ModeMood renders static or animated mood lighting
	ModeMood Mode = 2
	// ModeAudio reacts to the audio input
	ModeAudio Mode = 3
	// ModeOff blanks the output
	ModeOff Mode = 4
)

var modeNames = map[Mode]string{
	ModeCapture: `Capture`,
	ModeMood:    `Mood`,
	ModeAudio:   `Audio`,
	ModeOff:     `Off`,
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return `Unknown`
}

// Code returns the mode's wire code
func (m Mode) Code() uint8 {
	return uint8(m)
}

// ModeFromName resolves a mode name, case-insensitively.  Unrecognized names
// fail with ErrInvalidArgument.
func ModeFromName(name string) (Mode, error) {
	for mode, n := range modeNames {
		if strings.EqualFold(n, name) {
			return mode, nil
		}
	}
	return ModeUnknown, fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, name)
}

// SubMode is a secondary mode selector.  The same wire opcode carries codes
// 1-5, but their meaning depends on which primary mode is active, so a
// SubMode is tagged with the mode family it belongs to and values from
// different families never compare equal.  The zero value means no sub-mode
// has been asserted.
type SubMode struct {
	mode Mode
	code uint8
	name string
}

var subModeNames = map[Mode][]string{
	ModeCapture: {`Cinema`, `Dynamic`, `Subtle`, `Game`, `Relax`},
	ModeMood:    {`Manual`, `Rainbow`, `Candle`, `Sunset`, `Disco`},
	ModeAudio:   {`Spectrum`, `Energy`, `Pulse`, `Party`, `Chill`},
}

// SubModeManual is the Mood sub-mode required for direct color control
var SubModeManual = SubMode{mode: ModeMood, code: 1, name: `Manual`}

// SubModeFromName resolves a sub-mode name within the vocabulary of the
// given mode family, case-insensitively.  Names outside the family's
// vocabulary fail with ErrInvalidArgument, as does a mode without sub-modes.
func SubModeFromName(mode Mode, name string) (SubMode, error) {
	names, ok := subModeNames[mode]
	if !ok {
		return SubMode{}, fmt.Errorf("%w: mode %v has no sub-modes", ErrInvalidArgument, mode)
	}
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return SubMode{mode: mode, code: uint8(i + 1), name: n}, nil
		}
	}
	return SubMode{}, fmt.Errorf("%w: %q is not a valid sub-mode of %v", ErrInvalidArgument, name, mode)
}

// Mode returns the mode family this sub-mode belongs to
func (s SubMode) Mode() Mode {
	return s.mode
}

// Code returns the sub-mode's wire code
func (s SubMode) Code() uint8 {
	return s.code
}

func (s SubMode) String() string {
	if s.code == 0 {
		return `None`
	}
	return s.name
}

// Valid reports whether a sub-mode has been set
func (s SubMode) Valid() bool {
	return s.code != 0
}

// LightingState is the last state this agent believes it asserted on the
// appliance.  The appliance sends no status of any kind, so this is never
// device-confirmed truth, it only reflects the last issued commands.
type LightingState struct {
	Mode     Mode
	SubMode  SubMode
	Color    Color
	SwitchOn bool
}

// StateDelta is a partial LightingState change, committed against a tracker
// once the corresponding command has been dispatched.  Nil fields are left
// untouched.  Level changes only the brightness component of the color.
type StateDelta struct {
	Mode     *Mode
	SubMode  *SubMode
	Color    *Color
	Level    *uint8
	SwitchOn *bool
}
