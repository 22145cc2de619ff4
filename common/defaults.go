package common

import "time"

const (
	// DefaultPort is the fixed UDP port the appliance listens and replies on
	DefaultPort = 45457
	// DefaultSettleTime is the minimum delay the appliance requires between
	// consecutive mode-affecting commands
	DefaultSettleTime = 1 * time.Second
	// DefaultDiscoveryInterval is the period between broadcast discovery
	// pings
	DefaultDiscoveryInterval = 5 * time.Minute
	// DefaultSendTimeout bounds every datagram send
	DefaultSendTimeout = 2 * time.Second
	// DefaultStaleWindow is how long a resolved address is considered fresh
	// without a discovery reply.  A stale address is still used for sends,
	// the appliance cannot otherwise be reached.
	DefaultStaleWindow = 15 * time.Minute
)
