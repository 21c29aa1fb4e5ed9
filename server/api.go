// Invokers available to a module (spec.md §6): send_message,
// async_connect, connect_to_server, schedule_after, schedule_every,
// create_timer, async_disconnect_inactive_clients,
// async_disconnect_inactive_servers.
package server

import (
	"fmt"
	"time"

	"github.com/aautushka/protoserv/pool"
	"github.com/aautushka/protoserv/reactor"
	"github.com/aautushka/protoserv/session"
	"github.com/aautushka/protoserv/wire"
)

// SendMessage encodes msg with encode and sends it framed under T's
// protocol tag — the typed counterpart of Session.Send.
func SendMessage[T any](s *Server, sess *session.Session, encode func(T) ([]byte, error), msg T) error {
	payload, err := encode(msg)
	if err != nil {
		return err
	}
	tag := s.proto.Tag(wire.TypeOf[T]())
	return sess.Send(tag, payload)
}

// AsyncConnect dials ip:port asynchronously, auto-reconnecting on
// ordinary disconnect (spec.md §4.H). cb, if non-nil, fires once per
// successful connect, including every reconnect.
func (s *Server) AsyncConnect(ip string, port uint16, cb func(*session.Session)) {
	s.connector.Connect("tcp", fmt.Sprintf("%s:%d", ip, port), cb)
}

// ConnectToServer is AsyncConnect without a completion callback, for
// modules whose on_connected lifecycle hook already does everything a
// per-dial callback would.
func (s *Server) ConnectToServer(ip string, port uint16) {
	s.AsyncConnect(ip, port, nil)
}

// ScheduleAfter runs f once, after d, on the reactor goroutine.
func (s *Server) ScheduleAfter(d time.Duration, f func()) *reactor.Timer {
	return s.reactor.ScheduleAfter(d, f)
}

// ScheduleEvery runs f every d, on the reactor goroutine, re-arming
// after each fire.
func (s *Server) ScheduleEvery(d time.Duration, f func()) *reactor.Timer {
	return s.reactor.ScheduleEvery(d, f)
}

// CreateTimer builds a one-shot timer handle already holding its
// deadline and callback but paused — distinct from ScheduleAfter, whose
// callback runs without a Resume. The deadline is d from creation, not
// from Resume: resumed before the deadline, the timer fires at it;
// resumed after, it fires at once.
func (s *Server) CreateTimer(d time.Duration, f func()) *reactor.Timer {
	t := s.reactor.ScheduleAfter(d, f)
	t.Pause()
	return t
}

// AsyncDisconnectInactiveClients closes every inbound session that has
// been idle longer than threshold, then keeps re-checking every
// cfg.IdleCheckPeriod for as long as the reactor runs, so a connection
// that goes idle after the initial sweep still gets caught.
func (s *Server) AsyncDisconnectInactiveClients(threshold time.Duration) {
	s.scheduleIdleSweep(s.clients, threshold)
}

// AsyncDisconnectInactiveServers closes every outbound session that has
// been idle longer than threshold, then keeps re-checking every
// cfg.IdleCheckPeriod for as long as the reactor runs.
func (s *Server) AsyncDisconnectInactiveServers(threshold time.Duration) {
	s.scheduleIdleSweep(s.servers, threshold)
}

func (s *Server) scheduleIdleSweep(p *pool.SessionPool, threshold time.Duration) {
	s.reactor.Post(func() { idleSweep(p, threshold) })
	if s.cfg.IdleCheckPeriod > 0 {
		s.reactor.ScheduleEvery(s.cfg.IdleCheckPeriod, func() { idleSweep(p, threshold) })
	}
}
