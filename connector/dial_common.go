package connector

import (
	"net"

	"github.com/aautushka/protoserv/reactor"
)

// dialBlocking performs a standard blocking net.Dial on a dedicated
// goroutine and posts the result back to rx, used on platforms (or for
// address families) without a non-blocking connect path.
func dialBlocking(rx *reactor.Reactor, network, addr string, cb func(net.Conn, error)) {
	go func() {
		conn, err := net.Dial(network, addr)
		rx.Post(func() { cb(conn, err) })
	}()
}
