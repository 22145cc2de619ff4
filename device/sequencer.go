package device

import (
	"sync"
	"time"

	"github.com/lilavd/ambivision/common"
	"github.com/lilavd/ambivision/protocol"
)

// Step pairs one encoded command payload with the state change it asserts
// once dispatched
type Step struct {
	Payload []byte
	Delta   common.StateDelta
}

// StepForDelta encodes the payload for a prerequisite transition returned by
// Tracker.RequiredPrerequisites
func StepForDelta(delta common.StateDelta) Step {
	var payload []byte
	switch {
	case delta.Mode != nil:
		payload = protocol.EncodeMode(*delta.Mode)
	case delta.SubMode != nil:
		payload = protocol.EncodeSubMode(*delta.SubMode)
	}
	return Step{Payload: payload, Delta: delta}
}

// Sequencer dispatches multi-step command sequences in strict order,
// honoring the settle time the appliance requires between consecutive
// commands.  The settle limiter spans sequences: a sequence started
// immediately after another still waits out the settle time before its first
// send.
type Sequencer struct {
	transport common.Transport
	resolver  *Resolver
	tracker   *Tracker
	port      int
	settle    time.Duration
	limiter   *time.Timer
	sync.Mutex
}

// NewSequencer returns a Sequencer sending to the given port via transport.
// The first send is not delayed.
func NewSequencer(transport common.Transport, resolver *Resolver, tracker *Tracker, port int, settle time.Duration) *Sequencer {
	if settle <= 0 {
		settle = common.DefaultSettleTime
	}
	return &Sequencer{
		transport: transport,
		resolver:  resolver,
		tracker:   tracker,
		port:      port,
		settle:    settle,
		limiter:   time.NewTimer(0),
	}
}

// SetSettleTime changes the inter-command settle time for subsequent steps
func (s *Sequencer) SetSettleTime(settle time.Duration) {
	s.Lock()
	s.settle = settle
	s.Unlock()
}

// Execute dispatches the steps in order, committing each step's state delta
// to the tracker after its datagram is sent.  The destination address is
// resolved before every send.  On any failure the remaining steps are
// abandoned and a *common.DispatchError reports how many steps completed;
// state changes of completed steps are retained, those datagrams were
// physically sent and the protocol has no transactions.  Because deltas
// commit step by step, a concurrent state reader may observe the
// intermediate assertions of a sequence still in progress.  A sequence with
// no resolvable address before its first send fails with
// common.ErrNoAddress.
func (s *Sequencer) Execute(steps []Step) error {
	s.Lock()
	defer s.Unlock()

	for i, step := range steps {
		ip, err := s.resolver.Resolve()
		if err != nil {
			if i == 0 {
				return err
			}
			return &common.DispatchError{Completed: i, Cause: err}
		}

		<-s.limiter.C
		err = s.transport.SendDatagram(step.Payload, ip, s.port)
		s.limiter.Reset(s.settle)
		if err != nil {
			common.Log.Errorf("Send to %v failed at step %d of %d: %v", ip, i+1, len(steps), err)
			return &common.DispatchError{Completed: i, Cause: err}
		}

		common.Log.Debugf("Sent %q to %v (step %d of %d)", step.Payload, ip, i+1, len(steps))
		s.tracker.Apply(step.Delta)
	}

	return nil
}
