package pool

import (
	"net"

	"github.com/aautushka/protoserv/correlate"
	"github.com/aautushka/protoserv/reactor"
	"github.com/aautushka/protoserv/session"
	"github.com/aautushka/protoserv/wire"
)

// SessionPool is the slab-allocated session pool of spec.md §4.C,
// wrapping Arena[*session.Session]. Slot liveness is already O(1) via
// the generational Ref returned by Create — note (§9) — so Contains/
// IsLive here are plain map lookups rather than the free-list walk the
// original design used, matching what the generational arena buys.
type SessionPool struct {
	proto *wire.Protocol
	arena *Arena[*session.Session]
	live  map[*session.Session]Ref

	// OnDestroy, if set, is called after a session has been reclaimed
	// from the pool — the server facade uses it to keep a live-session
	// gauge in sync without needing a second onDestroyable slot on
	// Session itself.
	OnDestroy func(*session.Session)

	// OnCorrelatorPendingChange, if set, is wired onto every session's
	// Correlator.OnPendingChange as it's created — the server facade uses
	// it to keep a correlator-pending gauge in sync across every session
	// in the pool.
	OnCorrelatorPendingChange func(delta int)
}

// NewSessionPool creates an empty SessionPool whose sessions' correlators
// resolve tags against proto.
func NewSessionPool(proto *wire.Protocol) *SessionPool {
	return &SessionPool{
		proto: proto,
		arena: NewArena[*session.Session](),
		live:  make(map[*session.Session]Ref),
	}
}

// Create allocates a session slot, constructs the Session around conn,
// binds it a fresh Correlator, and wires its pool-removal hook so that
// Destroy happens automatically once the session's destroyable invariant
// holds (spec.md §3/§4.C).
func (p *SessionPool) Create(conn net.Conn, rx *reactor.Reactor, handler session.FrameHandler, events session.LifecycleEvents) *session.Session {
	var sess *session.Session
	ref, slot := p.arena.Create(func() *session.Session {
		sess = session.New(conn, rx, handler, events)
		return sess
	})
	*slot = sess
	p.live[sess] = ref
	sess.SetOnDestroyable(func(s *session.Session) {
		p.destroy(s)
	})
	corr := correlate.New(p.proto)
	corr.OnPendingChange = p.OnCorrelatorPendingChange
	sess.SetCorrelator(corr)
	return sess
}

func (p *SessionPool) destroy(s *session.Session) {
	ref, ok := p.live[s]
	if !ok {
		return
	}
	delete(p.live, s)
	p.arena.Destroy(ref)
	if p.OnDestroy != nil {
		p.OnDestroy(s)
	}
}

// Contains reports whether s was allocated by, and has not yet been
// reclaimed from, this pool.
func (p *SessionPool) Contains(s *session.Session) bool {
	_, ok := p.live[s]
	return ok
}

// IsLive reports whether s is both pool-resident and not yet Dead.
func (p *SessionPool) IsLive(s *session.Session) bool {
	return p.Contains(s) && s.IsLive()
}

// ForEach iterates every session currently live in the pool. The
// callback must not call Create or trigger a session's destruction.
func (p *SessionPool) ForEach(fn func(*session.Session)) {
	for s := range p.live {
		fn(s)
	}
}

// Len returns the number of sessions currently resident in the pool.
func (p *SessionPool) Len() int { return len(p.live) }
