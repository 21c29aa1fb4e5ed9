//go:build !linux
// +build !linux

// File: connector/dial_stub.go
//
// Non-Linux platforms have no Poller backend (reactor.NewPoller returns
// ErrUnsupportedPlatform), so outbound dials always use the portable
// blocking-goroutine path.
package connector

import (
	"net"

	"github.com/aautushka/protoserv/reactor"
)

func asyncDial(rx *reactor.Reactor, network, addr string, cb func(net.Conn, error)) {
	dialBlocking(rx, network, addr, cb)
}
