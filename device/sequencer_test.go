package device

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lilavd/ambivision/common"
	"github.com/lilavd/ambivision/mocks"
	"github.com/lilavd/ambivision/protocol"
)

const testSettle = 5 * time.Millisecond

func seededResolver() *Resolver {
	r := NewResolver(0)
	r.Update(record(`605533`, `V.18`, `192.168.1.50`))
	return r
}

func colorSteps(tr *Tracker) []Step {
	color := common.Color{Hue: 0, Saturation: 100, Level: 100}
	steps := make([]Step, 0, 3)
	for _, delta := range tr.RequiredPrerequisites(OpSetColor) {
		steps = append(steps, StepForDelta(delta))
	}
	r, g, b := color.RGB()
	return append(steps, Step{
		Payload: protocol.EncodeColor(int(r), int(g), int(b)),
		Delta:   common.StateDelta{Color: &color},
	})
}

func TestSequencerExecutesStepsInOrder(t *testing.T) {
	transport := new(mocks.Transport)
	resolver := seededResolver()
	tracker := NewTracker()
	s := NewSequencer(transport, resolver, tracker, common.DefaultPort, testSettle)

	var sent [][]byte
	transport.On(`SendDatagram`, mock.Anything, mock.Anything, common.DefaultPort).
		Return(nil).
		Run(func(args mock.Arguments) {
			sent = append(sent, args.Get(0).([]byte))
		})

	err := s.Execute(colorSteps(tracker))
	assert.NoError(t, err)

	assert.Equal(t, [][]byte{
		[]byte(`AmbiVision22`),
		[]byte(`AmbiVision31`),
		[]byte("AmbiVision1 R{255} G{0} B{0} \n"),
	}, sent)

	state := tracker.State()
	assert.Equal(t, common.ModeMood, state.Mode)
	assert.Equal(t, common.SubModeManual, state.SubMode)
	assert.Equal(t, uint8(100), state.Color.Level)
	assert.True(t, state.SwitchOn)
}

func TestSequencerSingleStepWhenStateSatisfied(t *testing.T) {
	transport := new(mocks.Transport)
	resolver := seededResolver()
	tracker := NewTracker()
	mood := common.ModeMood
	manual := common.SubModeManual
	tracker.Apply(common.StateDelta{Mode: &mood, SubMode: &manual})
	s := NewSequencer(transport, resolver, tracker, common.DefaultPort, testSettle)

	transport.On(`SendDatagram`, mock.Anything, mock.Anything, common.DefaultPort).Return(nil)

	assert.NoError(t, s.Execute(colorSteps(tracker)))
	transport.AssertNumberOfCalls(t, `SendDatagram`, 1)
}

func TestSequencerHonorsSettleTime(t *testing.T) {
	transport := new(mocks.Transport)
	resolver := seededResolver()
	tracker := NewTracker()
	settle := 30 * time.Millisecond
	s := NewSequencer(transport, resolver, tracker, common.DefaultPort, settle)

	transport.On(`SendDatagram`, mock.Anything, mock.Anything, common.DefaultPort).Return(nil)

	start := time.Now()
	assert.NoError(t, s.Execute(colorSteps(tracker)))
	// three steps, two settle gaps between them
	assert.GreaterOrEqual(t, time.Since(start), 2*settle)
}

func TestSequencerSettleSpansConsecutiveSequences(t *testing.T) {
	transport := new(mocks.Transport)
	resolver := seededResolver()
	tracker := NewTracker()
	settle := 30 * time.Millisecond
	s := NewSequencer(transport, resolver, tracker, common.DefaultPort, settle)

	transport.On(`SendDatagram`, mock.Anything, mock.Anything, common.DefaultPort).Return(nil)

	assert.NoError(t, s.Execute([]Step{{
		Payload: protocol.EncodeBrightness(40),
		Delta:   common.StateDelta{},
	}}))

	// the next sequence starts immediately, its first send must still wait
	// out the settle time armed by the previous sequence's last send
	start := time.Now()
	assert.NoError(t, s.Execute([]Step{{
		Payload: protocol.EncodeBrightness(80),
		Delta:   common.StateDelta{},
	}}))
	assert.GreaterOrEqual(t, time.Since(start), settle)
}

func TestSequencerAbortsOnMidSequenceFailure(t *testing.T) {
	transport := new(mocks.Transport)
	resolver := seededResolver()
	tracker := NewTracker()
	s := NewSequencer(transport, resolver, tracker, common.DefaultPort, testSettle)

	sendErr := errors.New(`network unreachable`)
	transport.On(`SendDatagram`, mock.Anything, mock.Anything, common.DefaultPort).Return(nil).Once()
	transport.On(`SendDatagram`, mock.Anything, mock.Anything, common.DefaultPort).Return(sendErr).Once()

	err := s.Execute(colorSteps(tracker))

	var dispatchErr *common.DispatchError
	assert.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, 1, dispatchErr.Completed)
	assert.ErrorIs(t, err, sendErr)

	// the third step is never sent
	transport.AssertNumberOfCalls(t, `SendDatagram`, 2)

	// the first step's state change is retained, it was physically sent
	state := tracker.State()
	assert.Equal(t, common.ModeMood, state.Mode)
	assert.False(t, state.SubMode.Valid())
	assert.Equal(t, uint8(0), state.Color.Level)
}

func TestSequencerNoAddress(t *testing.T) {
	transport := new(mocks.Transport)
	tracker := NewTracker()
	s := NewSequencer(transport, NewResolver(0), tracker, common.DefaultPort, testSettle)

	err := s.Execute(colorSteps(tracker))
	assert.ErrorIs(t, err, common.ErrNoAddress)
	transport.AssertNotCalled(t, `SendDatagram`, mock.Anything, mock.Anything, mock.Anything)

	// nothing was dispatched, nothing was asserted
	assert.Equal(t, common.ModeUnknown, tracker.State().Mode)
}

func TestSequencerResolvesBeforeEverySend(t *testing.T) {
	transport := new(mocks.Transport)
	resolver := seededResolver()
	tracker := NewTracker()
	s := NewSequencer(transport, resolver, tracker, common.DefaultPort, testSettle)

	moved := net.ParseIP(`192.168.1.77`)
	transport.On(`SendDatagram`, mock.Anything, mock.Anything, common.DefaultPort).
		Return(nil).
		Run(func(args mock.Arguments) {
			// the address changes mid-sequence, later steps must follow it
			resolver.Update(record(`605533`, `V.18`, moved.String()))
		})

	assert.NoError(t, s.Execute(colorSteps(tracker)))

	calls := transport.Calls
	assert.True(t, moved.Equal(calls[len(calls)-1].Arguments.Get(1).(net.IP)))
}
