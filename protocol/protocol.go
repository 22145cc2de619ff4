// Package protocol implements the AmbiVision PRO plaintext UDP command
// protocol.
//
// Encoding is pure and stateless: every function takes validated parameters
// and returns the exact payload the appliance expects.  Numeric inputs are
// clamped to their documented range, never rejected.  Mode/sub-mode
// compatibility is not checked here, that is the state tracker's job.
package protocol

import (
	"fmt"

	"github.com/lilavd/ambivision/common"
)

const (
	// DiscoveryPing is the broadcast payload that solicits a discovery reply
	DiscoveryPing = `AmbiVisionPing`

	colorPrefix      = `AmbiVision1`
	modePrefix       = `AmbiVision2`
	subModePrefix    = `AmbiVision3`
	brightnessPrefix = `AmbiVision4`
)

// EncodeMode returns the wire payload selecting a primary mode
func EncodeMode(mode common.Mode) []byte {
	return []byte(fmt.Sprintf("%s%d", modePrefix, mode.Code()))
}

// EncodeSubMode returns the wire payload selecting a sub-mode.  The code's
// meaning depends on the mode active on the appliance when it is received.
func EncodeSubMode(subMode common.SubMode) []byte {
	return []byte(fmt.Sprintf("%s%d", subModePrefix, subMode.Code()))
}

// EncodeBrightness returns the wire payload setting the overall brightness,
// level is clamped to 0-100
func EncodeBrightness(level int) []byte {
	return []byte(fmt.Sprintf("%s OVERALL_BRIGHTNESS={%d} \n", brightnessPrefix, clamp(level, 0, 100)))
}

// EncodeColor returns the wire payload setting a direct RGB color, each
// channel clamped to 0-255.  The appliance only honors this in Mood mode
// with the Manual sub-mode active.
func EncodeColor(r, g, b int) []byte {
	return []byte(fmt.Sprintf("%s R{%d} G{%d} B{%d} \n",
		colorPrefix, clamp(r, 0, 255), clamp(g, 0, 255), clamp(b, 0, 255)))
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
