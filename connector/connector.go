// Package connector implements spec.md §4.H: outbound connections that
// auto-reconnect on ordinary close, with a 500ms backoff and no retry
// cap. It is grounded on the teacher's client/client.go (connect/
// dialAndHandshake/recvLoop shape and its backoff-on-error retry loop),
// adapted from a one-shot bounded retry count to the spec's uncapped,
// reactor-timer-driven backoff.
package connector

import (
	"net"
	"time"

	"github.com/aautushka/protoserv/pool"
	"github.com/aautushka/protoserv/reactor"
	"github.com/aautushka/protoserv/session"
)

// reconnectBackoff is the fixed delay between a failed connection attempt
// and the next redial (spec.md §4.H). A connection that drops after it
// was established is redialed at once, without this delay.
const reconnectBackoff = 500 * time.Millisecond

// Connector dials outbound sessions and keeps them connected,
// redialing automatically whenever one is closed for any reason other
// than Kill.
type Connector struct {
	rx      *reactor.Reactor
	pool    *pool.SessionPool
	handler session.FrameHandler
	inner   session.LifecycleEvents

	// OnAttempt, if set, is called once per dial attempt (including
	// retries) before the result is known — the server facade wires it
	// to a metrics counter.
	OnAttempt func()
}

// New builds a Connector that creates sessions in sp, driven by rx,
// delivering frames to handler. events, if non-nil, receives every
// Connected/Disconnected notification alongside the connector's own
// reconnect bookkeeping.
func New(rx *reactor.Reactor, sp *pool.SessionPool, handler session.FrameHandler, events session.LifecycleEvents) *Connector {
	return &Connector{rx: rx, pool: sp, handler: handler, inner: events}
}

// Connect begins dialing network/addr asynchronously. onConnect, if
// non-nil, is called once per successful connect (including every
// reconnect) after the session reaches StateConnected.
func (c *Connector) Connect(network, addr string, onConnect func(*session.Session)) {
	c.dial(network, addr, onConnect)
}

func (c *Connector) dial(network, addr string, onConnect func(*session.Session)) {
	if c.OnAttempt != nil {
		c.OnAttempt()
	}
	asyncDial(c.rx, network, addr, func(conn net.Conn, err error) {
		if err != nil {
			c.rx.ScheduleAfter(reconnectBackoff, func() {
				c.dial(network, addr, onConnect)
			})
			return
		}
		events := &sessionEvents{c: c, network: network, addr: addr, onConnect: onConnect}
		sess := c.pool.Create(conn, c.rx, c.handler, events)
		sess.SetRemoteEndpoint(conn.RemoteAddr())
		sess.MarkConnected()
	})
}

// sessionEvents adapts one outbound session's lifecycle to the
// reconnect policy. Kill() never delivers Disconnected (session's
// silent-close contract), so an explicitly killed session is never
// redialed here — exactly spec.md §4.H's "unless the session was
// kill()ed", with no separate killed-check needed.
type sessionEvents struct {
	c         *Connector
	network   string
	addr      string
	onConnect func(*session.Session)
}

func (e *sessionEvents) Connected(s *session.Session) {
	if e.c.inner != nil {
		e.c.inner.Connected(s)
	}
	if e.onConnect != nil {
		e.onConnect(s)
	}
}

func (e *sessionEvents) Disconnected(s *session.Session) {
	if e.c.inner != nil {
		e.c.inner.Disconnected(s)
	}
	e.c.dial(e.network, e.addr, e.onConnect)
}
