// Package device implements the per-device control state: address
// resolution, asserted lighting state tracking, command sequencing and the
// discovery scheduler.
//
// One instance of each type serves one logical appliance.  All types are
// safe for concurrent use, though the client serializes command operations
// through a single worker.
package device

import (
	"net"
	"sync"
	"time"

	"github.com/lilavd/ambivision/common"
)

// Resolver maintains the best-known network address for the logical device,
// fed by parsed discovery records and consulted before every outgoing
// command.
type Resolver struct {
	identity   common.DeviceIdentity
	discovered bool
	ip         net.IP
	fallback   net.IP
	lastSeen   time.Time
	staleAfter time.Duration
	sync.RWMutex
}

// NewResolver returns a Resolver whose address becomes stale after the given
// window without a discovery reply.  A stale address is still resolved,
// staleness is advisory only.
func NewResolver(staleAfter time.Duration) *Resolver {
	if staleAfter <= 0 {
		staleAfter = common.DefaultStaleWindow
	}
	return &Resolver{staleAfter: staleAfter}
}

// Update overwrites the resolved address and device identity with the
// record's data.  Last write wins, repeated identical discoveries are
// idempotent.
func (r *Resolver) Update(record *common.DiscoveryRecord) {
	r.Lock()
	r.identity = record.DeviceIdentity
	r.ip = record.IP
	r.lastSeen = time.Now()
	r.discovered = true
	r.Unlock()
	common.Log.Debugf("Resolved device %v (%v) at %v", record.DeviceID, record.FirmwareVersion, record.IP)
}

// SetFallback seeds a manually configured address, used only until the first
// successful discovery
func (r *Resolver) SetFallback(ip net.IP) {
	r.Lock()
	r.fallback = ip
	r.Unlock()
}

// Resolve returns the current address for the device.  Returns
// common.ErrNoAddress if no discovery has ever succeeded and no fallback was
// configured.  A stale address is returned regardless, there is no other way
// to reach the appliance.
func (r *Resolver) Resolve() (net.IP, error) {
	r.RLock()
	defer r.RUnlock()
	if r.discovered {
		if time.Since(r.lastSeen) > r.staleAfter {
			common.Log.Warnf("Address %v not confirmed for %v, using it anyway", r.ip, time.Since(r.lastSeen).Round(time.Second))
		}
		return r.ip, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, common.ErrNoAddress
}

// Identity returns the last discovered device identity, and whether any
// discovery has succeeded yet
func (r *Resolver) Identity() (common.DeviceIdentity, bool) {
	r.RLock()
	defer r.RUnlock()
	return r.identity, r.discovered
}

// LastSeen returns the time of the last successful discovery
func (r *Resolver) LastSeen() time.Time {
	r.RLock()
	defer r.RUnlock()
	return r.lastSeen
}

// Stale reports whether the staleness window has elapsed since the last
// discovery reply
func (r *Resolver) Stale() bool {
	r.RLock()
	defer r.RUnlock()
	return !r.discovered || time.Since(r.lastSeen) > r.staleAfter
}
