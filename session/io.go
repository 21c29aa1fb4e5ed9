package session

import (
	"errors"
	"net"
	"time"

	"github.com/aautushka/protoserv/buffer"
	"github.com/aautushka/protoserv/wire"
)

// ErrNotConnected is returned by Send when the session is not currently connected.
var ErrNotConnected = errors.New("session: not connected")

// ErrFrameTooLarge is the FrameError of spec.md §7: the peer declared a
// frame longer than the configured ceiling. The session is killed, not
// closed — no further data from this peer is trustworthy.
var ErrFrameTooLarge = errors.New("session: frame exceeds configured ceiling")

// beginRead issues the next read of the recurring read loop (spec.md
// §4.B). The read itself runs on a dedicated goroutine (blocking
// syscalls don't belong on the reactor goroutine); its result is posted
// back and applied to session state entirely on the reactor goroutine.
func (s *Session) beginRead() {
	if s.state != StateConnected {
		return
	}
	s.readBuf.EnsureWritable()
	dst := s.readBuf.WritableTail()
	gen := s.readGeneration
	s.outstandingOps++
	go func() {
		n, err := s.conn.Read(dst)
		s.rx.Post(func() { s.onReadComplete(gen, n, err) })
	}()
}

func (s *Session) onReadComplete(gen uint64, n int, err error) {
	s.outstandingOps--
	if gen != s.readGeneration {
		// A teardown happened while this read was in flight; its bytes,
		// if any, belong to a buffer nobody will parse again.
		s.checkDestroy()
		return
	}
	if n > 0 {
		s.readBuf.Commit(n)
		s.lastActivity = time.Now()
		if perr := s.parseFrames(); perr != nil {
			s.Kill()
			return
		}
	}
	if err != nil {
		s.handleIOError(err)
		return
	}
	s.beginRead()
}

// parseFrames drains as many complete frames as the read buffer
// currently holds, delivering each to s.handler in wire order. A partial
// trailing frame is left for the next read (a parse stall, not an
// error, per spec.md §3).
func (s *Session) parseFrames() error {
	for {
		readable := s.readBuf.Readable()
		if len(readable) < wire.HeaderLen {
			return nil
		}
		hdr, err := wire.DecodeHeader(readable)
		if err != nil {
			return err
		}
		if int(hdr.TotalLen) > s.maxFrameLen {
			return ErrFrameTooLarge
		}
		if len(readable) < int(hdr.TotalLen) {
			return nil
		}
		payload := readable[wire.HeaderLen:hdr.TotalLen]
		tag := hdr.Tag
		consumed := int(hdr.TotalLen)
		// The correlator sits above ordinary dispatch (spec.md §4.G): a
		// frame claimed by a pending subscription never reaches the
		// module/component handler at all.
		if s.corr == nil || !s.corr.Dispatch(tag, payload) {
			if s.handler != nil {
				s.handler.HandleFrame(s, tag, payload)
			}
		}
		s.readBuf.Consume(consumed)
	}
}

func (s *Session) handleIOError(err error) {
	s.beginTeardown(false)
}

// Send enqueues a framed message and schedules a write if none is
// already in flight (spec.md §4.B). Must be called from the reactor
// goroutine (i.e. from within a handler or another reactor-posted job).
func (s *Session) Send(tag uint16, payload []byte) error {
	if s.state != StateConnected {
		return ErrNotConnected
	}
	framed, err := wire.AppendEncoded(nil, tag, payload)
	if err != nil {
		return err
	}
	s.writeBuf.Append(framed)
	if !s.writeInProgress {
		s.beginWrite()
	}
	return nil
}

func (s *Session) beginWrite() {
	flushed := s.writeBuf.Flip()
	if flushed.Empty() {
		return
	}
	var bufs net.Buffers
	flushed.ForEach(func(b []byte) { bufs = append(bufs, b) })
	s.writeInProgress = true
	s.outstandingOps++
	go func() {
		_, err := bufs.WriteTo(s.conn)
		s.rx.Post(func() { s.onWriteComplete(flushed, err) })
	}()
}

func (s *Session) onWriteComplete(flushed *buffer.ChunkedBuffer, err error) {
	s.outstandingOps--
	flushed.Clear()
	if err != nil {
		s.writeInProgress = false
		s.handleIOError(err)
		return
	}
	if !s.writeBuf.CurrentEmpty() {
		s.beginWrite()
	} else {
		s.writeInProgress = false
	}
	s.checkDestroy()
}

// ReadSome performs a single, synchronous, blocking read-and-parse
// cycle, for use by simple synchronous client users that are not driven
// by a Reactor (spec.md §4.B). It must not be called concurrently with
// the recurring read loop on the same session — that loop is what
// Start/MarkConnected begin, so ReadSome is meant for sessions
// constructed for direct, single-goroutine use instead.
func (s *Session) ReadSome() (tag uint16, payload []byte, err error) {
	for {
		if t, p, consumed, ok, perr := wire.Scan(s.readBuf.Readable()); perr != nil {
			return 0, nil, perr
		} else if ok {
			out := append([]byte(nil), p...)
			s.readBuf.Consume(consumed)
			return t, out, nil
		}
		s.readBuf.EnsureWritable()
		n, rerr := s.conn.Read(s.readBuf.WritableTail())
		if n > 0 {
			s.readBuf.Commit(n)
			s.lastActivity = time.Now()
		}
		if rerr != nil {
			return 0, nil, rerr
		}
	}
}
