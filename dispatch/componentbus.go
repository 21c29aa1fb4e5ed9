package dispatch

import "github.com/aautushka/protoserv/wire"

// componentSlot holds one registered component handler, type-erased.
type componentSlot struct {
	handler func(conn any, msg any) bool
}

// ComponentBus implements spec.md §6's post_component: in-process,
// type-keyed delivery of a Go value to the one component registered for
// that type. Unlike Table, which carries wire bytes across the
// tag-indexed registry, ComponentBus passes values directly —
// post_component has no wire representation, it's a same-process
// shortcut between components sharing a connection.
type ComponentBus struct {
	byType map[wire.PayloadType]componentSlot
}

// NewComponentBus builds an empty ComponentBus.
func NewComponentBus() *ComponentBus {
	return &ComponentBus{byType: make(map[wire.PayloadType]componentSlot)}
}

// RegisterComponentBusHandler registers fn to receive values of type T
// posted via Post. Only the first handler registered for a given type is
// ever invoked — post_component resolves to a single candidate at
// registration time, the way the original's SFINAE-based dispatch picks
// exactly one overload at compile time. Registering a second handler for
// the same type is ignored; it is never consulted.
func RegisterComponentBusHandler[T any](bus *ComponentBus, fn func(conn any, msg T) bool) {
	t := wire.TypeOf[T]()
	if _, exists := bus.byType[t]; exists {
		return
	}
	bus.byType[t] = componentSlot{
		handler: func(conn any, msg any) bool {
			return fn(conn, msg.(T))
		},
	}
}

// Post delivers msg to the sole registered handler for its type and
// returns its result unconditionally. It is a no-op returning false if no
// handler is registered for the type.
func Post[T any](bus *ComponentBus, conn any, msg T) (handled bool) {
	t := wire.TypeOf[T]()
	slot, ok := bus.byType[t]
	if !ok {
		return false
	}
	return slot.handler(conn, msg)
}
