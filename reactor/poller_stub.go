//go:build !linux
// +build !linux

// File: reactor/poller_stub.go
//
// Non-Linux platforms have no Poller backend here (the teacher carried a
// Windows IOCP implementation, but IOCP is completion-based rather than
// readiness-based and does not fit the Register/Modify/Wait readiness
// contract connector relies on). Callers must fall back
// to the portable, blocking-dial strategy connector already uses when
// NewPoller fails.

package reactor

// NewPoller reports ErrUnsupportedPlatform outside Linux.
func NewPoller() (Poller, error) {
	return nil, ErrUnsupportedPlatform
}
