package ambivision

import (
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/lilavd/ambivision/common"
	"github.com/lilavd/ambivision/device"
	"github.com/lilavd/ambivision/protocol"
)

const opQueueSize = 16

type opResult struct {
	attrs common.Attributes
	err   error
}

type opRequest struct {
	run    func() (common.Attributes, error)
	result chan opResult
}

// Client is the per-device context object: it owns the resolver, state
// tracker, sequencer and discovery scheduler for one logical appliance.
// Operations are serialized through a single worker in FIFO order, a request
// arriving while a sequence is in flight waits for it to complete or abort.
// Client can not be instantiated manually or it will not function - always
// use NewClient() to obtain a Client instance.
type Client struct {
	transport         common.Transport
	port              int
	settleTime        time.Duration
	discoveryInterval time.Duration
	staleWindow       time.Duration

	resolver  *device.Resolver
	tracker   *device.Tracker
	sequencer *device.Sequencer
	scheduler *device.Scheduler

	ops           chan *opRequest
	quitChan      chan struct{}
	closed        bool
	subscriptions map[string]*common.Subscription
	sync.RWMutex
}

func (c *Client) init() {
	c.resolver = device.NewResolver(c.staleWindow)
	c.tracker = device.NewTracker()
	c.sequencer = device.NewSequencer(c.transport, c.resolver, c.tracker, c.port, c.settleTime)
	c.scheduler = device.NewScheduler(c.transport, c.port, c.discoveryInterval)
	go c.worker()
	c.scheduler.Start()
}

// SetPower switches the appliance on or off.  The appliance has no power
// opcode: off asserts the Off mode, on re-asserts the last active mode,
// defaulting to Capture when none was ever asserted.
func (c *Client) SetPower(on bool) (common.Attributes, error) {
	return c.do(func() (common.Attributes, error) {
		mode := common.ModeOff
		if on {
			mode = c.tracker.LastActiveMode()
		}
		return c.execute([]device.Step{modeStep(mode)})
	})
}

// SetBrightness sets the overall brightness, clamped to 0-100
func (c *Client) SetBrightness(level int) (common.Attributes, error) {
	return c.do(func() (common.Attributes, error) {
		clamped := clampPct(level)
		return c.execute([]device.Step{{
			Payload: protocol.EncodeBrightness(level),
			Delta:   common.StateDelta{Level: &clamped},
		}})
	})
}

// SetColor sets a direct color from hue, saturation and level, each clamped
// to 0-100.  Direct color requires Mood mode with the Manual sub-mode: when
// either is not the asserted state, the required mode and sub-mode
// transitions are dispatched first, each separated by the settle time.
func (c *Client) SetColor(hue, saturation, level int) (common.Attributes, error) {
	return c.do(func() (common.Attributes, error) {
		color := common.Color{
			Hue:        clampPct(hue),
			Saturation: clampPct(saturation),
			Level:      clampPct(level),
		}

		var steps []device.Step
		for _, delta := range c.tracker.RequiredPrerequisites(device.OpSetColor) {
			steps = append(steps, device.StepForDelta(delta))
		}
		r, g, b := color.RGB()
		steps = append(steps, device.Step{
			Payload: protocol.EncodeColor(int(r), int(g), int(b)),
			Delta:   common.StateDelta{Color: &color},
		})
		return c.execute(steps)
	})
}

// SetMode selects a primary mode by name (Capture, Mood, Audio or Off).
// Unrecognized names fail with common.ErrInvalidArgument before any network
// I/O.
func (c *Client) SetMode(name string) (common.Attributes, error) {
	mode, err := common.ModeFromName(name)
	if err != nil {
		return nil, err
	}
	return c.do(func() (common.Attributes, error) {
		return c.execute([]device.Step{modeStep(mode)})
	})
}

// SetCaptureSubMode selects a sub-mode from the Capture vocabulary
func (c *Client) SetCaptureSubMode(name string) (common.Attributes, error) {
	return c.setSubMode(common.ModeCapture, name)
}

// SetMoodSubMode selects a sub-mode from the Mood vocabulary
func (c *Client) SetMoodSubMode(name string) (common.Attributes, error) {
	return c.setSubMode(common.ModeMood, name)
}

// SetAudioSubMode selects a sub-mode from the Audio vocabulary
func (c *Client) SetAudioSubMode(name string) (common.Attributes, error) {
	return c.setSubMode(common.ModeAudio, name)
}

func (c *Client) setSubMode(mode common.Mode, name string) (common.Attributes, error) {
	subMode, err := common.SubModeFromName(mode, name)
	if err != nil {
		return nil, err
	}
	return c.do(func() (common.Attributes, error) {
		if current := c.tracker.State().Mode; current != mode {
			common.Log.Warnf("Asserting %v sub-mode %v while asserted mode is %v", mode, subMode, current)
		}
		return c.execute([]device.Step{{
			Payload: protocol.EncodeSubMode(subMode),
			Delta:   common.StateDelta{SubMode: &subMode},
		}})
	})
}

// Discover issues one broadcast discovery ping.  Independent of command
// sequences: it may run while a sequence is in flight, and is coalesced with
// an already in-flight trigger.  Replies arrive asynchronously via
// OnDatagramReceived.
func (c *Client) Discover() error {
	c.RLock()
	closed := c.closed
	scheduler := c.scheduler
	c.RUnlock()
	if closed {
		return common.ErrClosed
	}
	return scheduler.Trigger()
}

// OnDatagramReceived is the inbound path: the transport must invoke it for
// every UDP payload received on the listening port, with the datagram's
// source address.  Payloads that are not AmbiVision discovery replies are
// ignored, malformed replies are logged and discarded.
func (c *Client) OnDatagramReceived(payload []byte, src net.IP) {
	record, match, err := protocol.ParseDiscoveryReply(payload, src)
	if !match {
		common.Log.Debugf("Ignoring unrecognized payload from %v", src)
		return
	}
	if err != nil {
		common.Log.Warnf("Discarding discovery reply from %v: %v", src, err)
		return
	}

	prev, known := c.currentAddress()
	c.resolver.Update(record)
	c.publish(common.EventDiscovered{Record: *record})
	if !known || !prev.Equal(record.IP) {
		common.Log.Infof("Device %v now at %v", record.DeviceID, record.IP)
		c.publish(common.EventAddressUpdated{Record: *record})
	}
}

// Attributes returns the publishable attribute set for the host platform.
// State attributes reflect the last issued commands, not device-confirmed
// truth, and a read concurrent with a multi-step operation may observe the
// prerequisite steps already asserted before the final one lands.
func (c *Client) Attributes() common.Attributes {
	attrs := common.Attributes{}

	if identity, ok := c.resolver.Identity(); ok {
		attrs[common.AttrDeviceID] = identity.DeviceID
		attrs[common.AttrFirmwareVersion] = identity.FirmwareVersion
	}
	if ip, err := c.resolver.Resolve(); err == nil {
		attrs[common.AttrIPAddress] = ip.String()
	}

	state := c.tracker.State()
	if state.Mode != common.ModeUnknown {
		attrs[common.AttrMode] = state.Mode.String()
	}
	if state.SubMode.Valid() {
		attrs[common.AttrSubMode] = state.SubMode.String()
	}
	attrs[common.AttrSwitch] = `off`
	if state.SwitchOn {
		attrs[common.AttrSwitch] = `on`
	}
	attrs[common.AttrLevel] = strconv.Itoa(int(state.Color.Level))
	attrs[common.AttrHue] = strconv.Itoa(int(state.Color.Hue))
	attrs[common.AttrSaturation] = strconv.Itoa(int(state.Color.Saturation))
	attrs[common.AttrColor] = state.Color.Hex()

	return attrs
}

// WaitForAddress blocks until the device address resolves, or returns
// common.ErrNoAddress when the timeout elapses first.  Useful right after
// client creation, while the first discovery reply is still in flight.
func (c *Client) WaitForAddress(timeout time.Duration) (net.IP, error) {
	tick := time.Tick(50 * time.Millisecond)
	after := time.After(timeout)
	for {
		select {
		case <-tick:
			if ip, err := c.resolver.Resolve(); err == nil {
				return ip, nil
			}
		case <-after:
			return nil, common.ErrNoAddress
		}
	}
}

// State returns a snapshot of the asserted lighting state.  See Attributes
// for the visibility caveat on multi-step operations.
func (c *Client) State() common.LightingState {
	return c.tracker.State()
}

// SetSettleTime changes the minimum delay between consecutive commands
func (c *Client) SetSettleTime(settle time.Duration) {
	c.Lock()
	c.settleTime = settle
	c.Unlock()
	c.sequencer.SetSettleTime(settle)
}

// SetDiscoveryInterval re-arms periodic discovery on a new interval
func (c *Client) SetDiscoveryInterval(interval time.Duration) {
	c.scheduler.Stop()
	c.Lock()
	c.discoveryInterval = interval
	c.scheduler = device.NewScheduler(c.transport, c.port, interval)
	c.Unlock()
	c.scheduler.Start()
}

// SetFallbackAddress seeds a manually configured device address, used until
// the first successful discovery overwrites it
func (c *Client) SetFallbackAddress(ip net.IP) {
	c.resolver.SetFallback(ip)
}

// NewSubscription returns a new *common.Subscription for receiving events
// from this client
func (c *Client) NewSubscription() (*common.Subscription, error) {
	c.RLock()
	closed := c.closed
	c.RUnlock()
	if closed {
		return nil, common.ErrClosed
	}
	sub := common.NewSubscription(c)
	c.Lock()
	c.subscriptions[sub.ID()] = sub
	c.Unlock()
	return sub, nil
}

// CloseSubscription is a callback for handling the closing of subscriptions
func (c *Client) CloseSubscription(sub *common.Subscription) error {
	c.RLock()
	_, ok := c.subscriptions[sub.ID()]
	c.RUnlock()
	if !ok {
		return errors.New(`subscription not found`)
	}
	c.Lock()
	delete(c.subscriptions, sub.ID())
	c.Unlock()
	return nil
}

// Close signals the termination of this client, and cleans up resources.
// Pending queued operations fail with common.ErrClosed.
func (c *Client) Close() error {
	c.Lock()
	if c.closed {
		c.Unlock()
		return common.ErrClosed
	}
	c.closed = true
	scheduler := c.scheduler
	c.Unlock()

	scheduler.Stop()
	close(c.quitChan)
	return nil
}

func (c *Client) do(run func() (common.Attributes, error)) (common.Attributes, error) {
	c.RLock()
	closed := c.closed
	c.RUnlock()
	if closed {
		return nil, common.ErrClosed
	}

	req := &opRequest{run: run, result: make(chan opResult, 1)}
	select {
	case c.ops <- req:
	case <-c.quitChan:
		return nil, common.ErrClosed
	}

	select {
	case res := <-req.result:
		return res.attrs, res.err
	case <-c.quitChan:
		// Closed while queued.  The worker drains stragglers, but don't
		// wait on it.
		select {
		case res := <-req.result:
			return res.attrs, res.err
		default:
			return nil, common.ErrClosed
		}
	}
}

// worker consumes the op queue one request at a time: strict FIFO, a single
// in-flight sequence, no reordering
func (c *Client) worker() {
	for {
		select {
		case <-c.quitChan:
			for {
				select {
				case req := <-c.ops:
					req.result <- opResult{err: common.ErrClosed}
				default:
					return
				}
			}
		case req := <-c.ops:
			attrs, err := req.run()
			req.result <- opResult{attrs: attrs, err: err}
		}
	}
}

// execute runs on the worker goroutine only
func (c *Client) execute(steps []device.Step) (common.Attributes, error) {
	if err := c.sequencer.Execute(steps); err != nil {
		return nil, err
	}
	c.publish(common.EventStateAsserted{State: c.tracker.State()})
	return c.Attributes(), nil
}

// Pushes an event to subscribers
func (c *Client) publish(event interface{}) {
	c.RLock()
	subs := make(map[string]*common.Subscription, len(c.subscriptions))
	for k, sub := range c.subscriptions {
		subs[k] = sub
	}
	c.RUnlock()

	for _, sub := range subs {
		if err := sub.Write(event); err != nil {
			common.Log.Warnf("Failed publishing %T to subscription %v: %v", event, sub.ID(), err)
		}
	}
}

func (c *Client) currentAddress() (net.IP, bool) {
	if _, ok := c.resolver.Identity(); !ok {
		return nil, false
	}
	ip, err := c.resolver.Resolve()
	return ip, err == nil
}

func modeStep(mode common.Mode) device.Step {
	on := mode != common.ModeOff
	return device.Step{
		Payload: protocol.EncodeMode(mode),
		Delta:   common.StateDelta{Mode: &mode, SwitchOn: &on},
	}
}

func clampPct(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return uint8(v)
}
