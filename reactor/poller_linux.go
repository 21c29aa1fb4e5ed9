//go:build linux
// +build linux

// File: reactor/poller_linux.go
// Linux epoll(7)-based Poller implementation, grounded on the teacher's
// reactor/epoll_reactor.go. Unlike the teacher's version, user data is
// tracked in a side map keyed by fd rather than packed into the
// EpollEvent's Pad field via unsafe.Pointer, which is not portable
// across epoll_event layouts.
package reactor

import (
	"sync"

	"golang.org/x/sys/unix"
)

type epollPoller struct {
	epfd int

	mu    sync.Mutex
	udata map[int32]uintptr
}

// NewPoller constructs the Linux epoll-backed Poller.
func NewPoller() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: epfd, udata: make(map[int32]uintptr)}, nil
}

func toEpollEvents(i Interest) uint32 {
	var ev uint32
	if i&InterestRead != 0 {
		ev |= unix.EPOLLIN
	}
	if i&InterestWrite != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func (p *epollPoller) Register(fd uintptr, interest Interest, udata uintptr) error {
	p.mu.Lock()
	p.udata[int32(fd)] = udata
	p.mu.Unlock()
	ev := &unix.EpollEvent{Events: toEpollEvents(interest), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, int(fd), ev)
}

func (p *epollPoller) Modify(fd uintptr, interest Interest) error {
	ev := &unix.EpollEvent{Events: toEpollEvents(interest), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, int(fd), ev)
}

func (p *epollPoller) Unregister(fd uintptr) error {
	p.mu.Lock()
	delete(p.udata, int32(fd))
	p.mu.Unlock()
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
}

func (p *epollPoller) Wait(events []Event, timeoutMs int) (int, error) {
	raw := make([]unix.EpollEvent, len(events))
	n, err := unix.EpollWait(p.epfd, raw, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < n; i++ {
		events[i] = Event{
			Fd:       uintptr(raw[i].Fd),
			UserData: p.udata[raw[i].Fd],
			Readable: raw[i].Events&unix.EPOLLIN != 0,
			Writable: raw[i].Events&unix.EPOLLOUT != 0,
		}
	}
	return n, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}
