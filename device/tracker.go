package device

import (
	"sync"

	"github.com/lilavd/ambivision/common"
)

// Operation identifies a requested high-level operation, used to derive the
// prerequisite transitions it needs
type Operation uint8

const (
	// OpSetPower switches the appliance on or off
	OpSetPower Operation = iota
	// OpSetBrightness sets the overall brightness
	OpSetBrightness
	// OpSetColor sets a direct RGB color
	OpSetColor
	// OpSetMode selects a primary mode
	OpSetMode
	// OpSetSubMode selects a sub-mode within the active mode family
	OpSetSubMode
)

// Tracker holds the last-asserted lighting state for the device.  The
// appliance never reports status, so the tracked state reflects the last
// commands this agent dispatched, not device-confirmed truth.
type Tracker struct {
	state      common.LightingState
	lastActive common.Mode
	sync.RWMutex
}

// NewTracker returns a Tracker with no state asserted yet
func NewTracker() *Tracker {
	return &Tracker{}
}

// State returns a snapshot of the asserted lighting state
func (t *Tracker) State() common.LightingState {
	t.RLock()
	defer t.RUnlock()
	return t.state
}

// LastActiveMode returns the last asserted non-Off mode, defaulting to
// Capture when none was ever asserted.  Used to restore the appliance on
// power-on, which has no dedicated opcode.
func (t *Tracker) LastActiveMode() common.Mode {
	t.RLock()
	defer t.RUnlock()
	if t.lastActive == common.ModeUnknown {
		return common.ModeCapture
	}
	return t.lastActive
}

// Apply commits a state change.  Only called after the corresponding command
// has been dispatched, never speculatively.
func (t *Tracker) Apply(delta common.StateDelta) {
	t.Lock()
	defer t.Unlock()
	if delta.Mode != nil {
		t.state.Mode = *delta.Mode
		if *delta.Mode != common.ModeOff {
			t.lastActive = *delta.Mode
		}
		if delta.SubMode == nil {
			// A mode switch invalidates the asserted sub-mode: the code
			// vocabulary changes with the mode family, and whatever the
			// appliance picks on its own is unknowable without status
			// feedback.
			t.state.SubMode = common.SubMode{}
		}
	}
	if delta.SubMode != nil {
		t.state.SubMode = *delta.SubMode
	}
	if delta.Color != nil {
		t.state.Color = *delta.Color
	}
	if delta.Level != nil {
		t.state.Color.Level = *delta.Level
	}
	if delta.SwitchOn != nil {
		t.state.SwitchOn = *delta.SwitchOn
	}
}

// RequiredPrerequisites returns the mode/sub-mode transitions that must be
// asserted before the given operation is valid, in dispatch order.  Direct
// color control requires Mood mode with the Manual sub-mode: if either is
// unmet both transitions are prepended, the appliance resets its sub-mode on
// a mode switch.  All other operations have no prerequisites.
func (t *Tracker) RequiredPrerequisites(op Operation) []common.StateDelta {
	if op != OpSetColor {
		return nil
	}

	t.RLock()
	defer t.RUnlock()
	if t.state.Mode == common.ModeMood && t.state.SubMode == common.SubModeManual {
		return nil
	}

	mood := common.ModeMood
	manual := common.SubModeManual
	on := true
	return []common.StateDelta{
		{Mode: &mood, SwitchOn: &on},
		{SubMode: &manual},
	}
}
