// File: reactor/poller.go
//
// Platform-neutral OS readiness multiplexer. The Reactor's main loop
// (reactor.go) never blocks on I/O itself — sessions perform their reads
// on dedicated goroutines and Post the result back — but one place does
// need real non-blocking readiness detection: async_connect (spec.md
// §4.H), which must learn "this socket became writable" without
// blocking the caller. Poller exists for exactly that, and is consumed
// by package connector.

package reactor

import "errors"

// Interest selects which readiness conditions Register watches for.
type Interest uint8

const (
	InterestRead Interest = 1 << iota
	InterestWrite
)

// Event reports one readiness notification.
type Event struct {
	Fd       uintptr
	UserData uintptr
	Readable bool
	Writable bool
}

// Poller multiplexes readiness across many file descriptors using the
// host OS's native facility. Only Linux (epoll) has a backend; elsewhere
// NewPoller returns ErrUnsupportedPlatform.
type Poller interface {
	// Register begins watching fd for the given interests; udata is
	// echoed back on every Event for this fd.
	Register(fd uintptr, interest Interest, udata uintptr) error

	// Modify changes the watched interests for an already-registered fd.
	Modify(fd uintptr, interest Interest) error

	// Unregister stops watching fd.
	Unregister(fd uintptr) error

	// Wait blocks up to timeoutMs milliseconds (negative: forever) and
	// fills events with ready notifications, returning how many.
	Wait(events []Event, timeoutMs int) (n int, err error)

	// Close releases the poller's OS resources.
	Close() error
}

// ErrUnsupportedPlatform is returned by NewPoller where no native
// multiplexer backend has been implemented; callers should fall back to
// a portable, goroutine-per-socket strategy (as package connector does).
var ErrUnsupportedPlatform = errors.New("reactor: no poller backend for this platform")
