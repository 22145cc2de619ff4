// Package transport provides the concrete UDP socket layer behind the
// common.Transport interface: unicast and broadcast sends with a bounded
// write deadline, and a listening loop that delivers inbound payloads with
// their source address to a handler.
//
// The control agent core never imports this package, it only consumes the
// common.Transport interface.
package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/lilavd/ambivision/common"
)

// UDP implements common.Transport over a single udp4 socket
type UDP struct {
	// Port is the local port to listen on.  Defaults to common.DefaultPort,
	// which is also the port the appliance replies to.
	Port int
	// Timeout bounds every send.  Defaults to common.DefaultSendTimeout.
	Timeout time.Duration

	handler     common.DatagramHandler
	socket      *net.UDPConn
	initialized bool
	closed      bool
	sync.Mutex
}

// NewUDP returns a UDP transport delivering inbound payloads to handler.
// The socket is bound lazily by the first send or by Listen.
func NewUDP(handler common.DatagramHandler) *UDP {
	return &UDP{
		Port:    common.DefaultPort,
		Timeout: common.DefaultSendTimeout,
		handler: handler,
	}
}

func (u *UDP) init() error {
	u.Lock()
	defer u.Unlock()
	if u.closed {
		return common.ErrClosed
	}
	if !u.initialized {
		socket, err := net.ListenUDP(`udp4`, &net.UDPAddr{Port: u.Port})
		if err != nil {
			return err
		}
		u.socket = socket
		u.initialized = true
	}
	return nil
}

// Listen binds the socket and delivers inbound payloads to the handler until
// Close is called.  Blocking; run it in its own goroutine.
func (u *UDP) Listen() error {
	if err := u.init(); err != nil {
		return err
	}

	buf := make([]byte, 1500)
	for {
		n, addr, err := u.socket.ReadFromUDP(buf)
		if err != nil {
			u.Lock()
			closed := u.closed
			u.Unlock()
			if closed {
				return nil
			}
			common.Log.Warnf("Failed reading from socket: %v", err)
			continue
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		if u.handler != nil {
			u.handler(payload, addr.IP)
		}
	}
}

// SendDatagram sends payload to the destination address and port, bounded by
// the configured timeout
func (u *UDP) SendDatagram(payload []byte, ip net.IP, port int) error {
	return u.write(payload, &net.UDPAddr{IP: ip, Port: port})
}

// SendBroadcast sends payload to the local broadcast address on port,
// bounded by the configured timeout
func (u *UDP) SendBroadcast(payload []byte, port int) error {
	return u.write(payload, &net.UDPAddr{IP: net.IPv4bcast, Port: port})
}

func (u *UDP) write(payload []byte, addr *net.UDPAddr) error {
	if err := u.init(); err != nil {
		return err
	}

	if err := u.socket.SetWriteDeadline(time.Now().Add(u.Timeout)); err != nil {
		return err
	}
	_, err := u.socket.WriteToUDP(payload, addr)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return fmt.Errorf("%w: send to %v", common.ErrTimeout, addr)
		}
		return err
	}
	return nil
}

// LocalAddr returns the bound socket address, or nil before the socket is
// bound
func (u *UDP) LocalAddr() net.Addr {
	u.Lock()
	defer u.Unlock()
	if u.socket == nil {
		return nil
	}
	return u.socket.LocalAddr()
}

// Close shuts the socket down, terminating Listen
func (u *UDP) Close() error {
	u.Lock()
	defer u.Unlock()
	if u.closed {
		return common.ErrClosed
	}
	u.closed = true
	if u.socket != nil {
		return u.socket.Close()
	}
	return nil
}
