// Package ambivision provides a network control agent for an AmbiVision PRO
// ambient-lighting appliance, reachable over UDP on a fixed port.
//
// The appliance speaks a plaintext command protocol and sends no
// acknowledgments and no status of any kind.  The agent therefore tracks
// lighting state as asserted: the state it exposes reflects the last
// commands it issued, never device-confirmed truth.  The appliance's address
// is learned by broadcast ping/response discovery and re-resolved
// periodically, since it may change between DHCP leases.
//
// Also included in cmd/ambictl is a small CLI utility that drives an
// appliance on the LAN.
package ambivision

import (
	"github.com/lilavd/ambivision/common"
)

const (
	// VERSION of this library
	VERSION = `0.1.0`
)

// NewClient returns a pointer to a new Client controlling one logical
// appliance through the supplied transport.  It also kicks off a discovery
// run, and re-arms discovery on the default interval.
//
// The caller owns the transport's inbound path and must deliver every
// received UDP payload to Client.OnDatagramReceived.
func NewClient(transport common.Transport) (*Client, error) {
	c := &Client{
		transport:         transport,
		port:              common.DefaultPort,
		settleTime:        common.DefaultSettleTime,
		discoveryInterval: common.DefaultDiscoveryInterval,
		staleWindow:       common.DefaultStaleWindow,
		subscriptions:     make(map[string]*common.Subscription),
		ops:               make(chan *opRequest, opQueueSize),
		quitChan:          make(chan struct{}),
	}
	c.init()
	return c, nil
}

// SetLogger allows assigning a custom levelled logger that conforms to the
// common.Logger interface.  To capture logs generated during client
// creation, this should be called before creating a Client.  Defaults to
// common.StubLogger, which does no logging at all.
func SetLogger(logger common.Logger) {
	common.SetLogger(logger)
}
