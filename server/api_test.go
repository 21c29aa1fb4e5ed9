package server

import (
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aautushka/protoserv/pool"
	"github.com/aautushka/protoserv/reactor"
	"github.com/aautushka/protoserv/wire"
)

func newTestReactor(t *testing.T) *reactor.Reactor {
	t.Helper()
	r := reactor.New()
	go r.Run()
	t.Cleanup(r.Stop)
	return r
}

func TestCreateTimerStartsPausedAndFiresOnceResumed(t *testing.T) {
	s := &Server{reactor: newTestReactor(t)}

	var count int32
	timer := s.CreateTimer(5*time.Millisecond, func() { atomic.AddInt32(&count, 1) })

	// Paused: the original deadline elapses with no callback invoked.
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&count))

	timer.Resume()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&count) == 1
	}, time.Second, time.Millisecond, "CreateTimer's timer must fire once Resume is called, even after its original deadline elapsed while paused")
}

func TestAsyncDisconnectInactiveClientsRechecksPeriodically(t *testing.T) {
	rx := newTestReactor(t)
	clients := pool.NewSessionPool(wire.NewProtocol("test"))
	s := &Server{
		reactor: rx,
		clients: clients,
		cfg:     Config{IdleCheckPeriod: 5 * time.Millisecond},
	}

	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	done := make(chan struct{})
	rx.Post(func() {
		sess := clients.Create(local, rx, nil, nil)
		sess.MarkConnected()
		close(done)
	})
	<-done

	// The first, immediate sweep must not catch a session that only goes
	// idle afterward.
	s.AsyncDisconnectInactiveClients(10 * time.Millisecond)

	require.Eventually(t, func() bool {
		result := make(chan int, 1)
		rx.Post(func() { result <- clients.Len() })
		return <-result == 0
	}, time.Second, 5*time.Millisecond, "IdleCheckPeriod re-checks must eventually disconnect a session that goes idle after the initial sweep")
}
