//go:build linux
// +build linux

// File: connector/dial_linux.go
//
// Non-blocking connect-completion detection via a dedicated epoll
// instance (reactor.Poller), grounded on reactor/poller_linux.go. Only
// IPv4 TCP endpoints take the non-blocking path; anything else falls
// back to dialBlocking.
package connector

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/aautushka/protoserv/reactor"
)

func asyncDial(rx *reactor.Reactor, network, addr string, cb func(net.Conn, error)) {
	raddr, err := net.ResolveTCPAddr(network, addr)
	if err != nil {
		rx.Post(func() { cb(nil, err) })
		return
	}
	ip4 := raddr.IP.To4()
	if ip4 == nil {
		// IPv6 (or unresolved) endpoint: the non-blocking path below only
		// builds an AF_INET sockaddr, so fall back to a blocking dial.
		dialBlocking(rx, network, addr, cb)
		return
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		rx.Post(func() { cb(nil, err) })
		return
	}

	sa := &unix.SockaddrInet4{Port: raddr.Port}
	copy(sa.Addr[:], ip4)

	if err := unix.Connect(fd, sa); err == nil {
		conn, cerr := fdToConn(fd, addr)
		rx.Post(func() { cb(conn, cerr) })
		return
	} else if err != unix.EINPROGRESS {
		unix.Close(fd)
		rx.Post(func() { cb(nil, err) })
		return
	}

	go waitConnect(rx, fd, addr, cb)
}

func waitConnect(rx *reactor.Reactor, fd int, addr string, cb func(net.Conn, error)) {
	poller, perr := reactor.NewPoller()
	if perr != nil {
		unix.Close(fd)
		rx.Post(func() { cb(nil, perr) })
		return
	}
	defer poller.Close()

	if err := poller.Register(uintptr(fd), reactor.InterestWrite, 0); err != nil {
		unix.Close(fd)
		rx.Post(func() { cb(nil, err) })
		return
	}

	events := make([]reactor.Event, 1)
	for {
		n, err := poller.Wait(events, 5000)
		if err != nil {
			unix.Close(fd)
			rx.Post(func() { cb(nil, err) })
			return
		}
		if n > 0 {
			break
		}
	}

	soErr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		unix.Close(fd)
		rx.Post(func() { cb(nil, err) })
		return
	}
	if soErr != 0 {
		unix.Close(fd)
		rx.Post(func() { cb(nil, fmt.Errorf("connect %s: %w", addr, unix.Errno(soErr))) })
		return
	}

	conn, cerr := fdToConn(fd, addr)
	rx.Post(func() { cb(conn, cerr) })
}

func fdToConn(fd int, addr string) (net.Conn, error) {
	f := os.NewFile(uintptr(fd), addr)
	defer f.Close()
	return net.FileConn(f)
}
