// Package stdincmd implements spec.md §4.J: a dedicated OS thread
// blocking on line-delimited stdin, posting parsed commands onto a
// Reactor. Grounded on the teacher's stdin-reader comment in
// internal/websocket — "the source's 'Win32 async' comment is a lie the
// comment tells on itself; the code blocks on readsome in a worker
// thread" (spec.md Design Notes §9) — so this package does exactly
// that, honestly: a blocking bufio.Scanner loop on its own goroutine.
package stdincmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aautushka/protoserv/reactor"
)

// keepaliveInterval is the period of the reactor-side timer that keeps
// firing while commands are queued for delivery (spec.md §4.J).
const keepaliveInterval = 100 * time.Millisecond

// Command is one parsed stdin line: whitespace-split into a name and
// its remaining arguments.
type Command struct {
	Name string
	Args []string
}

// Handler reacts to a Command already filtered of the well-known
// built-ins (exit, help, die).
type Handler func(Command)

// Stream reads lines from r on a dedicated goroutine and posts parsed
// commands onto rx.
type Stream struct {
	rx      *reactor.Reactor
	r       io.Reader
	handler Handler
	help    string

	pending   int32
	keepalive atomic.Pointer[reactor.Timer]
}

// New builds a Stream reading from r, posting non-built-in commands to
// handler via rx. help is printed (to stdout) when the built-in "help"
// command is received.
func New(rx *reactor.Reactor, r io.Reader, handler Handler, help string) *Stream {
	return &Stream{rx: rx, r: r, handler: handler, help: help}
}

// Start launches the reader goroutine. It returns immediately; reading
// continues until r is exhausted or returns an error.
func (s *Stream) Start() {
	go s.readLoop()
}

func (s *Stream) readLoop() {
	scanner := bufio.NewScanner(s.r)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd := Command{Name: fields[0], Args: fields[1:]}
		s.post(cmd)
	}
}

func (s *Stream) post(cmd Command) {
	atomic.AddInt32(&s.pending, 1)
	s.armKeepalive()
	s.rx.Post(func() {
		atomic.AddInt32(&s.pending, -1)
		s.dispatch(cmd)
	})
}

// dispatch runs on the reactor goroutine. Well-known commands are
// intercepted before the caller's handler ever sees them (spec.md
// §4.J).
func (s *Stream) dispatch(cmd Command) {
	switch cmd.Name {
	case "exit":
		go s.rx.Stop()
		return
	case "help":
		fmt.Fprintln(os.Stdout, s.help)
		return
	case "die":
		// Silently accepted; reserved.
		return
	}
	if s.handler != nil {
		s.handler(cmd)
	}
}

func (s *Stream) armKeepalive() {
	if s.keepalive.Load() != nil {
		return
	}
	t := s.rx.ScheduleEvery(keepaliveInterval, s.onKeepalive)
	if !s.keepalive.CompareAndSwap(nil, t) {
		t.Cancel()
	}
}

func (s *Stream) onKeepalive() {
	if atomic.LoadInt32(&s.pending) != 0 {
		return
	}
	if t := s.keepalive.Swap(nil); t != nil {
		t.Cancel()
	}
}
