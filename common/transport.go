package common

import "net"

// Transport defines the interface between the control agent and the UDP
// socket layer.  Implementations must bound every send with a timeout, the
// agent treats a timeout identically to a send failure.
type Transport interface {
	// SendDatagram sends payload to the destination address and port
	SendDatagram(payload []byte, ip net.IP, port int) error
	// SendBroadcast sends payload to the local broadcast address on port
	SendBroadcast(payload []byte, port int) error
}

// DatagramHandler is invoked by a transport for every UDP payload received
// on the listening port, along with the datagram's source address
type DatagramHandler func(payload []byte, src net.IP)
