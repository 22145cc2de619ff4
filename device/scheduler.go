package device

import (
	"time"

	"go.uber.org/atomic"

	"github.com/lilavd/ambivision/common"
	"github.com/lilavd/ambivision/protocol"
)

// Scheduler issues periodic broadcast discovery pings.  A ping is
// fire-and-forget: replies arrive asynchronously on the transport's inbound
// path, the scheduler returns to idle immediately after the send.  Triggers
// arriving while a send is in flight are coalesced, the ping is idempotent.
type Scheduler struct {
	transport   common.Transport
	port        int
	interval    time.Duration
	discovering atomic.Bool
	quitChan    chan struct{}
	started     atomic.Bool
}

// NewScheduler returns a Scheduler broadcasting to the given port on the
// given interval.  It does not start until Start is called.
func NewScheduler(transport common.Transport, port int, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = common.DefaultDiscoveryInterval
	}
	return &Scheduler{
		transport: transport,
		port:      port,
		interval:  interval,
		quitChan:  make(chan struct{}),
	}
}

// Trigger issues one broadcast discovery ping.  Returns nil without sending
// when another trigger is already in flight.
func (s *Scheduler) Trigger() error {
	if !s.discovering.CompareAndSwap(false, true) {
		common.Log.Debugf(`Discovery already in flight, coalescing trigger`)
		return nil
	}
	defer s.discovering.Store(false)

	common.Log.Debugf(`Broadcasting discovery ping`)
	if err := s.transport.SendBroadcast([]byte(protocol.DiscoveryPing), s.port); err != nil {
		common.Log.Errorf("Discovery broadcast failed: %v", err)
		return err
	}
	return nil
}

// Start triggers discovery immediately and re-arms it on the configured
// interval until Stop is called.  The period is fixed, with no backoff and
// no upper bound on retries.
func (s *Scheduler) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	_ = s.Trigger()
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.quitChan:
				common.Log.Debugf(`Quitting discovery loop`)
				return
			case <-ticker.C:
				_ = s.Trigger()
			}
		}
	}()
}

// Stop halts periodic discovery.  Safe to call before Start, or more than
// once.
func (s *Scheduler) Stop() {
	if !s.started.CompareAndSwap(true, false) {
		return
	}
	s.quitChan <- struct{}{}
}
