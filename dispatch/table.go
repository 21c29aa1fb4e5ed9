package dispatch

import (
	"log/slog"

	"github.com/aautushka/protoserv/session"
	"github.com/aautushka/protoserv/wire"
)

// byteHandler is the type-erased form every registered handler compiles
// down to: decode payload, run the user's typed callback, optionally
// encode and return a reply frame.
type byteHandler func(conn *session.Session, payload []byte) (replyTag uint16, replyPayload []byte, hasReply bool, err error)

type tableEntry struct {
	module     byteHandler
	components []byteHandler
}

// Table implements spec.md §4.F's tag -> handler dispatch: module first,
// then every registered component, each fan-out independent of the
// other ("a miss at the component level is silent").
type Table struct {
	proto   *wire.Protocol
	entries []tableEntry

	// OnDispatched is called once per successful (error-free) handler
	// invocation — module or component — for observability. Wired to
	// package metrics by the server facade.
	OnDispatched func(tag uint16)

	// OnUnhandled is called for any tag with neither a module nor a
	// component handler — spec.md: "dropped (counted via an
	// observability hook, not an error)". Wired to package metrics by
	// the server facade.
	OnUnhandled func(tag uint16)

	// OnHandlerError is called when a decode or handler-level error
	// occurs; the frame is still considered delivered (spec.md §7
	// DecodeError: "surface via a hook... log and drop the frame").
	OnHandlerError func(tag uint16, err error)

	logger *slog.Logger
}

// NewTable builds an empty Table over proto.
func NewTable(proto *wire.Protocol, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{
		proto:   proto,
		entries: make([]tableEntry, proto.Len()),
		logger:  logger,
	}
}

// RegisterModule wires fn as the module-level handler for payload type T,
// decoding frames with decode and, if fn returns a reply, encoding it
// with encode and sending it back on the module's canonical tag for R.
func RegisterModule[T any, R any](t *Table, decode func([]byte) (T, error), encode func(R) ([]byte, error), fn func(conn *session.Session, msg T) (R, bool)) {
	tag := t.proto.Tag(wire.TypeOf[T]())
	replyTag := t.proto.Tag(wire.TypeOf[R]())
	t.entries[tag].module = wrapHandler(decode, encode, replyTag, fn)
}

// RegisterComponent appends fn as an additional component-level handler
// for payload type T. Multiple components may handle the same type.
func RegisterComponent[T any, R any](t *Table, decode func([]byte) (T, error), encode func(R) ([]byte, error), fn func(conn *session.Session, msg T) (R, bool)) {
	tag := t.proto.Tag(wire.TypeOf[T]())
	replyTag := t.proto.Tag(wire.TypeOf[R]())
	h := wrapHandler(decode, encode, replyTag, fn)
	t.entries[tag].components = append(t.entries[tag].components, h)
}

func wrapHandler[T any, R any](decode func([]byte) (T, error), encode func(R) ([]byte, error), replyTag uint16, fn func(conn *session.Session, msg T) (R, bool)) byteHandler {
	return func(conn *session.Session, payload []byte) (uint16, []byte, bool, error) {
		msg, err := decode(payload)
		if err != nil {
			return 0, nil, false, err
		}
		reply, hasReply := fn(conn, msg)
		if !hasReply {
			return 0, nil, false, nil
		}
		out, err := encode(reply)
		if err != nil {
			return 0, nil, false, err
		}
		return replyTag, out, true, nil
	}
}

// HandleFrame implements session.FrameHandler: module dispatch first,
// then every registered component, in declaration order (spec.md §4.F).
func (t *Table) HandleFrame(conn *session.Session, tag uint16, payload []byte) {
	if int(tag) >= len(t.entries) {
		t.unhandled(tag)
		return
	}
	e := &t.entries[tag]
	if e.module == nil && len(e.components) == 0 {
		t.unhandled(tag)
		return
	}
	if e.module != nil {
		t.invoke(conn, tag, payload, e.module)
	}
	for _, h := range e.components {
		t.invoke(conn, tag, payload, h)
	}
}

func (t *Table) invoke(conn *session.Session, tag uint16, payload []byte, h byteHandler) {
	replyTag, replyPayload, hasReply, err := h(conn, payload)
	if err != nil {
		if t.OnHandlerError != nil {
			t.OnHandlerError(tag, err)
		}
		t.logger.Warn("dispatch: handler error, dropping frame", "tag", tag, "error", err)
		return
	}
	if t.OnDispatched != nil {
		t.OnDispatched(tag)
	}
	if hasReply {
		if sendErr := conn.Send(replyTag, replyPayload); sendErr != nil {
			t.logger.Warn("dispatch: implicit reply send failed", "tag", replyTag, "error", sendErr)
		}
	}
}

func (t *Table) unhandled(tag uint16) {
	if t.OnUnhandled != nil {
		t.OnUnhandled(tag)
	}
}
