// Package session implements the per-connection I/O engine of spec.md
// §4.B: framing, send/receive buffers, lifecycle, and the reference-
// counting discipline that keeps deferred callbacks from touching a
// freed session. It is grounded on the teacher's
// internal/session/session.go and internal/session/cancel.go (context-
// carrying, cancelable per-connection state), generalized from a bare
// cancellation token to the full read/write/lifecycle engine spec.md
// asks for, and on internal/websocket/connection.go for the
// read-loop-reposts-itself shape.
package session

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/aautushka/protoserv/buffer"
	"github.com/aautushka/protoserv/correlate"
	"github.com/aautushka/protoserv/reactor"
)

// DefaultMaxFrameLen is the frame-size ceiling enforced by the read
// loop, matching spec.md §3's "Maximum frame 65,535 bytes".
const DefaultMaxFrameLen = 0xFFFF

// Session is per-TCP-connection state and I/O machinery. All mutation of
// a Session's fields happens on its owning Reactor's goroutine — reads
// and writes are performed by dedicated goroutines that Post their
// results back rather than touching Session state directly — so Session
// itself needs no internal locking beyond the atomic refcount, which
// ReferenceToken.Release may touch from any goroutine.
type Session struct {
	conn    net.Conn
	rx      *reactor.Reactor
	handler FrameHandler
	events  LifecycleEvents

	readBuf  *buffer.RollingBuffer
	writeBuf *buffer.DoubleBuffer

	state                State
	writeInProgress       bool
	outstandingOps        int
	lastActivity          time.Time
	disconnectedNotified  bool
	killed                bool
	maxFrameLen           int
	remote                net.Addr
	readGeneration        uint64 // bumped on close/kill to invalidate in-flight reads

	userData userDataSlot

	// corr is this session's request/reply correlator (spec.md §4.G),
	// bound one-to-one with the session so its pending subscriptions can
	// be cancelled from exactly this session's teardown path. Nil unless
	// SetCorrelator was called; the correlator layer is optional.
	corr *correlate.Correlator

	refcount atomic.Int32

	// onDestroyable fires exactly once, on the reactor goroutine, the
	// first time the session becomes destroyable (spec.md §3 invariant).
	// The owning pool uses it to reclaim the arena slot. Reconnection is
	// not driven from here: connector redials from the Disconnected event.
	onDestroyable func(*Session)
}

// New constructs a Session wrapping conn, driven by rx, delivering
// frames to handler and lifecycle events to events. The session starts
// in StateNew; call Start to begin reading, or MarkConnected first if
// the socket is already established (the common inbound case).
func New(conn net.Conn, rx *reactor.Reactor, handler FrameHandler, events LifecycleEvents) *Session {
	return &Session{
		conn:        conn,
		rx:          rx,
		handler:     handler,
		events:      events,
		readBuf:     buffer.NewRollingBuffer(4096),
		writeBuf:    buffer.NewDoubleBuffer(),
		state:       StateNew,
		maxFrameLen: DefaultMaxFrameLen,
	}
}

// SetOnDestroyable registers the pool-removal hook. Must be called
// before the session can possibly become destroyable.
func (s *Session) SetOnDestroyable(fn func(*Session)) {
	s.onDestroyable = fn
}

// SetCorrelator binds c as this session's request/reply correlator. c's
// pending subscriptions are cancelled automatically when the session
// tears down (spec.md §4.G/§5: "session close cancels all correlator
// subscriptions bound to that session").
func (s *Session) SetCorrelator(c *correlate.Correlator) { s.corr = c }

// Correlator returns the session's bound correlator, or nil if
// SetCorrelator was never called.
func (s *Session) Correlator() *correlate.Correlator { return s.corr }

// SetRemoteEndpoint records the endpoint used to reach this session, for
// outbound sessions that may need to reconnect (spec.md §3).
func (s *Session) SetRemoteEndpoint(addr net.Addr) { s.remote = addr }

// RemoteEndpoint returns the endpoint previously recorded via
// SetRemoteEndpoint, or nil.
func (s *Session) RemoteEndpoint() net.Addr { return s.remote }

// SetMaxFrameLen overrides the default 65535-byte frame ceiling.
func (s *Session) SetMaxFrameLen(n int) { s.maxFrameLen = n }

// Connected reports whether the session is in StateConnected.
func (s *Session) Connected() bool { return s.state == StateConnected }

// State returns the session's current lifecycle state.
func (s *Session) State() State { return s.state }

// IsLive reports whether the session may still be validly referenced:
// true until the terminal Dead state is reached and the owner has been
// notified. This resolves spec.md §9's open question in favor of a
// plain bool return in every code path.
func (s *Session) IsLive() bool { return s.state != StateDead }

// MarkConnected transitions New|Connecting -> Connected, notifies the
// owner's Connected hook (strictly before any HandleFrame, per spec.md
// §5), and begins the recurring read loop.
func (s *Session) MarkConnected() {
	if s.state != StateNew && s.state != StateConnecting {
		return
	}
	s.state = StateConnected
	s.lastActivity = time.Now()
	if s.events != nil {
		s.events.Connected(s)
	}
	s.beginRead()
}

// Start is an alias for MarkConnected kept for symmetry with spec.md
// §4.B's "start() — begin recurring reads... Precondition: socket open."
func (s *Session) Start() { s.MarkConnected() }

// destroyable implements spec.md §3's invariant: a session is
// destroyable iff !connected && outstanding_ops == 0 && refcount == 0 &&
// disconnected_notified.
func (s *Session) destroyable() bool {
	return s.state == StateDead &&
		s.outstandingOps == 0 &&
		s.refcount.Load() == 0 &&
		s.disconnectedNotified
}

// checkDestroy must run on the reactor goroutine. It transitions
// Disconnecting -> Dead once outstanding ops drain, fires the
// disconnected notification exactly once, and finally invokes
// onDestroyable once the full destroyable invariant holds.
func (s *Session) checkDestroy() {
	if s.state == StateDisconnecting && s.outstandingOps == 0 {
		s.state = StateDead
	}
	if s.state == StateDead && !s.disconnectedNotified {
		s.disconnectedNotified = true
		if s.corr != nil {
			s.corr.Cancel()
		}
		if s.events != nil && !s.killed {
			s.events.Disconnected(s)
		} else if s.events != nil {
			// killed sessions still flip disconnectedNotified so the
			// destroyable invariant can be satisfied, but per spec.md
			// §4.B ("kill() — silent close; no owner notification") the
			// owner is never called.
		}
	}
	if s.destroyable() && s.onDestroyable != nil {
		fn := s.onDestroyable
		s.onDestroyable = nil
		fn(s)
	}
}

// postCheckDestroy posts checkDestroy onto the reactor goroutine; safe
// to call from any goroutine (ReferenceToken.Release does).
func (s *Session) postCheckDestroy() {
	s.rx.Post(s.checkDestroy)
}

// Close performs an orderly shutdown: closes the socket, notifies the
// owner exactly once via Disconnected, and becomes eligible for
// destruction once refs/ops clear. Calling Close multiple times is safe
// and fires Disconnected only once (spec.md property 2).
func (s *Session) Close() {
	s.beginTeardown(false)
}

// Kill performs a silent close: the socket is closed but Disconnected is
// never delivered to the owner (spec.md §4.B).
func (s *Session) Kill() {
	s.beginTeardown(true)
}

// Shutdown half-closes the write side without closing the socket,
// letting any remaining inbound bytes still be read.
func (s *Session) Shutdown() {
	if cw, ok := s.conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
}

func (s *Session) beginTeardown(killed bool) {
	if s.state == StateDead || s.state == StateDisconnecting {
		if killed {
			s.killed = true
		}
		return
	}
	s.killed = killed
	s.state = StateDisconnecting
	s.readGeneration++ // invalidate any in-flight read's completion handling
	_ = s.conn.Close()
	s.checkDestroy()
}

// DisconnectIfIdle issues Close if no bytes have been read within
// threshold, counting from connect if nothing has been read yet
// (spec.md §4.B). Writes do not reset the idle clock.
func (s *Session) DisconnectIfIdle(threshold time.Duration) {
	if s.state != StateConnected {
		return
	}
	if time.Since(s.lastActivity) > threshold {
		s.Close()
	}
}
