package session

import "sync/atomic"

// ReferenceToken is a move-only handle that pins a session against pool
// removal (spec.md §3, §9 Design Notes: "two disjoint lifetime
// constraints ANDed together"). Go has no linear types to enforce
// move-only at compile time, so the discipline is: call Release exactly
// once, and never use the token (or a copy of it) afterward. Release is
// idempotent defensively, but relying on that is a bug in the caller.
//
// Dereferencing the pinned session after it has disconnected is safe —
// the struct itself outlives the token, by construction, since Destroy
// cannot run while refcount > 0 — but IsLive will report false and the
// session's fields reflect its post-disconnect state.
type ReferenceToken struct {
	s        *Session
	released atomic.Bool
}

// TakeRef increments the session's reference count and returns a token
// pinning it against pool removal until Release is called.
func (s *Session) TakeRef() *ReferenceToken {
	s.refcount.Add(1)
	return &ReferenceToken{s: s}
}

// Session returns the session this token pins. Check IsLive before
// trusting any state on it beyond what's documented as safe post-
// disconnect.
func (t *ReferenceToken) Session() *Session { return t.s }

// IsLive reports whether the pinned session is still live (per
// spec.md's is_live: the Design Notes open question is resolved in
// favor of returning bool unconditionally).
func (t *ReferenceToken) IsLive() bool { return t.s.IsLive() }

// Release drops the reference. Safe to call from any goroutine; the
// resulting destroy check (if this was the last reference) is posted
// onto the owning reactor rather than run inline.
func (t *ReferenceToken) Release() {
	if !t.released.CompareAndSwap(false, true) {
		return
	}
	s := t.s
	left := s.refcount.Add(-1)
	if left == 0 {
		s.postCheckDestroy()
	}
}
