package dispatch

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aautushka/protoserv/reactor"
	"github.com/aautushka/protoserv/session"
	"github.com/aautushka/protoserv/wire"
)

type ping struct{ N int32 }
type pong struct{ N int32 }

func encodePing(m ping) ([]byte, error) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(m.N))
	return b, nil
}

func decodePing(b []byte) (ping, error) {
	return ping{N: int32(binary.LittleEndian.Uint32(b))}, nil
}

func encodePong(m pong) ([]byte, error) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(m.N))
	return b, nil
}

func decodePong(b []byte) (pong, error) {
	return pong{N: int32(binary.LittleEndian.Uint32(b))}, nil
}

func newTestSession(t *testing.T, rx *reactor.Reactor, handler session.FrameHandler) (*session.Session, net.Conn) {
	t.Helper()
	local, remote := net.Pipe()
	t.Cleanup(func() { local.Close(); remote.Close() })
	sess := session.New(local, rx, handler, nil)
	rx.Post(sess.MarkConnected)
	return sess, remote
}

func TestTableModuleHandlerSendsImplicitReply(t *testing.T) {
	proto := wire.NewProtocol("test", wire.TypeOf[ping](), wire.TypeOf[pong]())
	table := NewTable(proto, nil)
	RegisterModule(table, decodePing, encodePong, func(_ *session.Session, msg ping) (pong, bool) {
		return pong{N: msg.N + 1}, true
	})

	rx := reactor.New()
	go rx.Run()
	defer rx.Stop()

	sess, remote := newTestSession(t, rx, table)

	payload, _ := encodePing(ping{N: 41})
	rx.Post(func() { table.HandleFrame(sess, wire.TagOf[ping](proto), payload) })

	remote.SetReadDeadline(time.Now().Add(time.Second))
	hdr := make([]byte, wire.HeaderLen)
	_, err := remote.Read(hdr)
	require.NoError(t, err)
	h, err := wire.DecodeHeader(hdr)
	require.NoError(t, err)
	require.Equal(t, wire.TagOf[pong](proto), h.Tag)

	body := make([]byte, h.PayloadLen())
	_, err = remote.Read(body)
	require.NoError(t, err)
	got, err := decodePong(body)
	require.NoError(t, err)
	require.Equal(t, pong{N: 42}, got)
}

func TestTableInvokesBothModuleAndComponents(t *testing.T) {
	proto := wire.NewProtocol("test", wire.TypeOf[ping]())
	table := NewTable(proto, nil)

	var moduleSeen, componentSeen bool
	RegisterModule(table, decodePing, encodePing, func(_ *session.Session, _ ping) (ping, bool) {
		moduleSeen = true
		return ping{}, false
	})
	RegisterComponent(table, decodePing, encodePing, func(_ *session.Session, _ ping) (ping, bool) {
		componentSeen = true
		return ping{}, false
	})

	payload, _ := encodePing(ping{N: 1})
	table.HandleFrame(nil, wire.TagOf[ping](proto), payload)

	require.True(t, moduleSeen)
	require.True(t, componentSeen)
}

func TestTableDispatchedHookFiresOncePerSuccessfulInvoke(t *testing.T) {
	proto := wire.NewProtocol("test", wire.TypeOf[ping]())
	table := NewTable(proto, nil)

	var dispatched []uint16
	table.OnDispatched = func(tag uint16) { dispatched = append(dispatched, tag) }

	RegisterModule(table, decodePing, encodePing, func(_ *session.Session, m ping) (ping, bool) {
		return m, false
	})
	RegisterComponent(table, decodePing, encodePing, func(_ *session.Session, m ping) (ping, bool) {
		return m, false
	})

	payload, _ := encodePing(ping{N: 1})
	table.HandleFrame(nil, wire.TagOf[ping](proto), payload)

	require.Equal(t, []uint16{wire.TagOf[ping](proto), wire.TagOf[ping](proto)}, dispatched)
}

func TestTableUnhandledTagInvokesHook(t *testing.T) {
	proto := wire.NewProtocol("test", wire.TypeOf[ping]())
	table := NewTable(proto, nil)

	var unhandledTag uint16
	var called bool
	table.OnUnhandled = func(tag uint16) {
		called = true
		unhandledTag = tag
	}

	table.HandleFrame(nil, wire.TagOf[ping](proto), []byte{0, 0, 0, 0})

	require.True(t, called)
	require.Equal(t, wire.TagOf[ping](proto), unhandledTag)
}

func TestTableHandlerErrorInvokesHookAndDropsFrame(t *testing.T) {
	proto := wire.NewProtocol("test", wire.TypeOf[ping]())
	table := NewTable(proto, nil)

	var handlerErrTag uint16
	table.OnHandlerError = func(tag uint16, _ error) { handlerErrTag = tag }

	RegisterModule(table, func([]byte) (ping, error) {
		return ping{}, assert.AnError
	}, encodePing, func(_ *session.Session, m ping) (ping, bool) {
		return m, true
	})

	table.HandleFrame(nil, wire.TagOf[ping](proto), []byte{0, 0, 0, 0})
	require.Equal(t, wire.TagOf[ping](proto), handlerErrTag)
}

func TestLifecycleFanoutRunsModuleThenComponentsInOrder(t *testing.T) {
	var order []string
	module := &recordingEvents{name: "module", order: &order}
	fanout := NewLifecycleFanout(module)
	fanout.AddComponent(&recordingEvents{name: "comp1", order: &order})
	fanout.AddComponent(&recordingEvents{name: "comp2", order: &order})

	fanout.Connected(nil)
	require.Equal(t, []string{"module:connected", "comp1:connected", "comp2:connected"}, order)

	order = nil
	fanout.Disconnected(nil)
	require.Equal(t, []string{"module:disconnected", "comp1:disconnected", "comp2:disconnected"}, order)
}

type recordingEvents struct {
	name  string
	order *[]string
}

func (r *recordingEvents) Connected(*session.Session)    { *r.order = append(*r.order, r.name+":connected") }
func (r *recordingEvents) Disconnected(*session.Session) { *r.order = append(*r.order, r.name+":disconnected") }

func TestComponentBusDeliversOnlyToFirstRegisteredHandler(t *testing.T) {
	bus := NewComponentBus()
	var firstSeen, secondSeen bool
	RegisterComponentBusHandler(bus, func(_ any, _ ping) bool {
		firstSeen = true
		return false
	})
	RegisterComponentBusHandler(bus, func(_ any, _ ping) bool {
		secondSeen = true
		return true
	})

	handled := Post(bus, nil, ping{N: 1})
	require.False(t, handled)
	require.True(t, firstSeen)
	require.False(t, secondSeen)
}

func TestComponentBusNoHandlerRegisteredIsNoop(t *testing.T) {
	bus := NewComponentBus()
	handled := Post(bus, nil, ping{N: 1})
	require.False(t, handled)
}
