// Package correlate implements spec.md §4.G's request/reply correlator:
// a per-type, one-shot FIFO subscription queue layered above dispatch,
// plus the bounded ambient queue that lets a synchronous wait_message<T>
// drain frames nobody subscribed to. One Correlator is owned per session
// (glossary: "bound to a session/client") so that session close can
// cancel exactly its own pending subscriptions.
//
// Grounded on the teacher's request/reply matching in
// internal/session/cancel.go (a single cancellation token per pending
// operation) generalized to a per-type FIFO of tokens, and on
// eapache/queue for the FIFO storage itself — a dependency the teacher
// declares but never exercises; the correlator's queues are exactly the
// allocation-light ring-buffer use case that library is built for.
package correlate

import (
	"errors"

	"github.com/eapache/queue"
	"github.com/aautushka/protoserv/wire"
)

// ErrCancelled is delivered to every pending handler when a Correlator
// is cancelled, either by session disconnect or explicit destruction.
var ErrCancelled = errors.New("correlate: subscription cancelled")

// ambientCapacity bounds the number of unclaimed frames retained per
// type before the oldest is dropped to make room for the newest.
const ambientCapacity = 64

type subscription struct {
	deliver func(payload []byte)
	cancel  func()
}

// Correlator matches inbound frames against pending typed subscriptions,
// falling back to a bounded per-type ambient queue for frames nobody is
// currently waiting on (spec.md §4.G).
type Correlator struct {
	proto   *wire.Protocol
	subs    map[uint16]*queue.Queue
	ambient map[uint16]*queue.Queue
	pending int

	// OnPendingChange, if set, is called with the signed delta applied to
	// pending on every Subscribe, consumed Dispatch, and Cancel — the
	// server facade uses it to keep a correlator-pending gauge in sync
	// without polling Pending() on every session.
	OnPendingChange func(delta int)
}

// New builds an empty Correlator bound to proto's tag space.
func New(proto *wire.Protocol) *Correlator {
	return &Correlator{
		proto:   proto,
		subs:    make(map[uint16]*queue.Queue),
		ambient: make(map[uint16]*queue.Queue),
	}
}

// Subscribe appends a one-shot subscription for payload type T. handler
// is invoked at most once: either with a decoded value and a nil error
// on delivery, or with the zero value and ErrCancelled if the
// Correlator is cancelled first.
func Subscribe[T any](c *Correlator, decode func([]byte) (T, error), handler func(T, error)) {
	tag := c.proto.Tag(wire.TypeOf[T]())
	q, ok := c.subs[tag]
	if !ok {
		q = queue.New()
		c.subs[tag] = q
	}
	q.Add(&subscription{
		deliver: func(payload []byte) {
			msg, err := decode(payload)
			handler(msg, err)
		},
		cancel: func() {
			var zero T
			handler(zero, ErrCancelled)
		},
	})
	c.pending++
	if c.OnPendingChange != nil {
		c.OnPendingChange(1)
	}
}

// Dispatch attempts to match frame (tag, payload) against a queued
// subscription for tag. If one exists, its front entry is popped and
// delivered and Dispatch returns true (consumed). Otherwise the frame is
// pushed onto tag's ambient queue, oldest dropped first if at capacity,
// and Dispatch returns false so the caller can fall through to normal
// dispatch.
func (c *Correlator) Dispatch(tag uint16, payload []byte) bool {
	if q, ok := c.subs[tag]; ok && q.Length() > 0 {
		sub := q.Remove().(*subscription)
		c.pending--
		if c.OnPendingChange != nil {
			c.OnPendingChange(-1)
		}
		sub.deliver(payload)
		return true
	}
	aq, ok := c.ambient[tag]
	if !ok {
		aq = queue.New()
		c.ambient[tag] = aq
	}
	if aq.Length() >= ambientCapacity {
		aq.Remove()
	}
	aq.Add(append([]byte(nil), payload...))
	return false
}

// WaitMessage synchronously drains the next ambient frame of type T, if
// one is already queued, decoding it with decode. It does not block —
// callers needing to wait for a frame that has not yet arrived should
// use Subscribe instead; WaitMessage only serves frames the correlator
// already holds because no subscriber claimed them.
func WaitMessage[T any](c *Correlator, decode func([]byte) (T, error)) (T, bool, error) {
	var zero T
	tag := c.proto.Tag(wire.TypeOf[T]())
	aq, ok := c.ambient[tag]
	if !ok || aq.Length() == 0 {
		return zero, false, nil
	}
	payload := aq.Remove().([]byte)
	msg, err := decode(payload)
	return msg, true, err
}

// Cancel drains every pending subscription queue, delivering each
// handler ErrCancelled, and resets pending to zero. The subscription
// list is captured by swap before draining, so a handler that
// re-subscribes from within its own cancellation callback is not itself
// cancelled by this pass (spec.md §4.G).
func (c *Correlator) Cancel() {
	swapped := c.subs
	c.subs = make(map[uint16]*queue.Queue)
	drained := c.pending
	c.pending = 0
	if drained > 0 && c.OnPendingChange != nil {
		c.OnPendingChange(-drained)
	}
	for _, q := range swapped {
		for q.Length() > 0 {
			sub := q.Remove().(*subscription)
			sub.cancel()
		}
	}
}

// Done reports whether no subscriptions are currently pending.
func (c *Correlator) Done() bool { return c.pending == 0 }

// Pending returns the number of subscriptions currently awaiting delivery.
func (c *Correlator) Pending() int { return c.pending }
