package server

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/aautushka/protoserv/config"
	"github.com/aautushka/protoserv/connector"
	"github.com/aautushka/protoserv/dispatch"
	"github.com/aautushka/protoserv/metrics"
	"github.com/aautushka/protoserv/pool"
	"github.com/aautushka/protoserv/protolog"
	"github.com/aautushka/protoserv/reactor"
	"github.com/aautushka/protoserv/session"
	"github.com/aautushka/protoserv/stdincmd"
	"github.com/aautushka/protoserv/wire"
)

// Server is the top-level facade binding one Reactor to its session
// pools, dispatch table, connector, and optional stdin command stream —
// the object a process constructs and runs (spec.md §6).
type Server struct {
	cfg    Config
	proto  *wire.Protocol
	table  *dispatch.Table
	events *dispatch.LifecycleFanout
	module dispatch.Module

	reactor   *reactor.Reactor
	clients   *pool.SessionPool
	servers   *pool.SessionPool
	connector *connector.Connector
	metrics   *metrics.Metrics
	logger    *slog.Logger

	stdinReader io.Reader
	stdinHelp   string

	listener net.Listener
	closeErr error
}

// NewServer builds a Server. table must already have every module and
// component handler registered (dispatch.RegisterModule/
// RegisterComponent); events fans Connected/Disconnected out the same
// way.
func NewServer(proto *wire.Protocol, module dispatch.Module, table *dispatch.Table, events *dispatch.LifecycleFanout, cfg Config, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		proto:   proto,
		table:   table,
		events:  events,
		module:  module,
		reactor: reactor.New(),
		clients: pool.NewSessionPool(proto),
		servers: pool.NewSessionPool(proto),
		logger:  protolog.NewDefault(slog.LevelInfo),
	}
	for _, o := range opts {
		o(s)
	}

	if s.metrics != nil {
		s.table.OnDispatched = func(tag uint16) {
			s.metrics.FramesDispatched.WithLabelValues(fmt.Sprint(tag)).Inc()
		}
		s.table.OnUnhandled = func(tag uint16) {
			s.metrics.UnhandledFrames.WithLabelValues(fmt.Sprint(tag)).Inc()
		}
		s.table.OnHandlerError = func(tag uint16, _ error) {
			s.metrics.HandlerErrors.WithLabelValues(fmt.Sprint(tag)).Inc()
		}
		s.clients.OnDestroy = func(*session.Session) { s.metrics.SessionsLive.Dec() }
		s.servers.OnDestroy = func(*session.Session) { s.metrics.SessionsLive.Dec() }
		pendingDelta := func(delta int) { s.metrics.CorrelatorPending.Add(float64(delta)) }
		s.clients.OnCorrelatorPendingChange = pendingDelta
		s.servers.OnCorrelatorPendingChange = pendingDelta
	}

	s.connector = connector.New(s.reactor, s.servers, s.table, s.events)
	if s.metrics != nil {
		s.connector.OnAttempt = func() { s.metrics.ReconnectAttempts.Inc() }
	}
	return s
}

// Configure applies spec.md's Ip/Port configuration keys, updating the
// listen address, and posts on_initialized followed by on_configuration
// (with the recognized keys removed) onto the reactor, in that order.
func (s *Server) Configure(opts config.Options) error {
	listen, rest, err := config.ParseListen(opts)
	if err != nil {
		return err
	}
	s.cfg.ListenAddr = listen.Addr()
	s.reactor.Post(s.module.OnInitialized)
	s.reactor.Post(func() { s.module.OnConfiguration(rest) })
	return nil
}

// Run starts accepting inbound connections, starts the stdin command
// stream if one was configured via WithStdin, and blocks running the
// reactor until Shutdown is called.
func (s *Server) Run() error {
	s.reactor.OnStop(s.module.OnDeinitialized)

	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.reactor.OnStop(func() {
		if err := ln.Close(); err != nil {
			s.closeErr = multierror.Append(s.closeErr, fmt.Errorf("closing listener: %w", err))
		}
	})
	go s.acceptLoop(ln)

	if s.stdinReader != nil {
		stream := stdincmd.New(s.reactor, s.stdinReader, func(c stdincmd.Command) {
			s.module.OnCommand(c.Name, c.Args)
		}, s.stdinHelp)
		stream.Start()
	}

	s.reactor.Run()
	return nil
}

// Shutdown closes every live session in an orderly fashion, waits up to
// cfg.ShutdownTimeout for them to drain so in-flight I/O has a chance to
// finish, then stops the reactor and waits for Run to drain. It reports
// every teardown failure collected along the way — the listener close
// from Run's OnStop hook, plus the stdin reader's own Close if it
// implements io.Closer — aggregated with multierror rather than
// discarding all but the last one.
func (s *Server) Shutdown() error {
	s.drainSessions()
	s.reactor.Stop()
	if c, ok := s.stdinReader.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.closeErr = multierror.Append(s.closeErr, fmt.Errorf("closing stdin reader: %w", err))
		}
	}
	if s.closeErr == nil {
		return nil
	}
	return s.closeErr
}

// drainSessions asks every live client and server session to close, then
// blocks up to cfg.ShutdownTimeout waiting for the pools to empty out.
// Every check is marshaled onto the reactor goroutine via Post, since the
// pools' session maps are only ever safe to read from there. A
// non-positive ShutdownTimeout skips draining entirely and Shutdown stops
// the reactor immediately, same as before this grace period existed.
func (s *Server) drainSessions() {
	if s.cfg.ShutdownTimeout <= 0 {
		return
	}

	s.reactor.Post(func() {
		s.clients.ForEach(func(sess *session.Session) { sess.Close() })
		s.servers.ForEach(func(sess *session.Session) { sess.Close() })
	})

	deadline := time.Now().Add(s.cfg.ShutdownTimeout)
	for time.Now().Before(deadline) {
		remaining := make(chan int, 1)
		s.reactor.Post(func() { remaining <- s.clients.Len() + s.servers.Len() })
		select {
		case n := <-remaining:
			if n == 0 {
				return
			}
		case <-time.After(50 * time.Millisecond):
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		s.reactor.Post(func() {
			sess := s.clients.Create(conn, s.reactor, s.table, s.events)
			if s.cfg.MaxFrameLen > 0 {
				sess.SetMaxFrameLen(s.cfg.MaxFrameLen)
			}
			sess.SetRemoteEndpoint(conn.RemoteAddr())
			sess.MarkConnected()
			if s.metrics != nil {
				s.metrics.SessionsLive.Inc()
			}
		})
	}
}

// idleSweep is the shared scan behind AsyncDisconnectInactiveClients and
// AsyncDisconnectInactiveServers.
func idleSweep(p *pool.SessionPool, threshold time.Duration) {
	p.ForEach(func(sess *session.Session) { sess.DisconnectIfIdle(threshold) })
}
