package session

// FrameHandler receives parsed frames in wire order. Implemented by
// package dispatch; Session itself knows nothing about module/component
// fan-out, only about delivering bytes.
type FrameHandler interface {
	HandleFrame(s *Session, tag uint16, payload []byte)
}

// LifecycleEvents receives connection lifecycle notifications. Connected
// fires once, strictly before any HandleFrame call for that session;
// Disconnected fires at most once, strictly after every HandleFrame call
// for that session (spec.md §5 ordering guarantees).
type LifecycleEvents interface {
	Connected(s *Session)
	Disconnected(s *Session)
}

// FrameHandlerFunc adapts a plain function to FrameHandler.
type FrameHandlerFunc func(s *Session, tag uint16, payload []byte)

func (f FrameHandlerFunc) HandleFrame(s *Session, tag uint16, payload []byte) { f(s, tag, payload) }
