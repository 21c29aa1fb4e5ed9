package wire

import (
	"fmt"
	"reflect"
)

// PayloadType identifies a message payload type by its reflect.Type.
// Handlers register concrete Go types; the registry hands back a stable
// numeric tag for each.
type PayloadType = reflect.Type

// TypeOf is a convenience wrapper returning the PayloadType for T.
func TypeOf[T any]() PayloadType {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		// T is an interface or pointer type whose zero value is nil;
		// fall back to reflect.TypeOf((*T)(nil)).Elem().
		t = reflect.TypeOf((*T)(nil)).Elem()
	}
	return t
}

// Protocol is an ordered, construction-time list of payload types. The
// position of a type in the list is its tag. Protocols are built once,
// at module construction, and never mutated afterward.
type Protocol struct {
	types []PayloadType
	index map[PayloadType]uint16
	name  string
}

// NewProtocol builds a Protocol from an ordered list of payload types.
// Duplicate types panic — a protocol's tags must be bijective with its
// type list, matching the compile-time-error discipline of spec §4.E.
func NewProtocol(name string, types ...PayloadType) *Protocol {
	p := &Protocol{
		types: append([]PayloadType(nil), types...),
		index: make(map[PayloadType]uint16, len(types)),
		name:  name,
	}
	for i, t := range types {
		if _, dup := p.index[t]; dup {
			panic(fmt.Sprintf("wire: protocol %q declares type %s twice", name, t))
		}
		p.index[t] = uint16(i)
	}
	return p
}

// Name returns the protocol's declared name, mostly for diagnostics.
func (p *Protocol) Name() string { return p.name }

// Len returns the number of payload types in the protocol.
func (p *Protocol) Len() int { return len(p.types) }

// TypeAt returns the payload type registered at tag, or nil if out of range.
func (p *Protocol) TypeAt(tag uint16) PayloadType {
	if int(tag) >= len(p.types) {
		return nil
	}
	return p.types[tag]
}

// Tag resolves the stable tag for a payload type already known to the
// protocol. Builder-form protocols panic on a miss (per spec §4.E:
// "identifying a type not present... is a compile-time error, or, in
// builder form, panic during module initialization — never a runtime
// miss"). Construct and validate protocols during module setup, not
// while serving traffic.
func (p *Protocol) Tag(t PayloadType) uint16 {
	tag, ok := p.index[t]
	if !ok {
		panic(fmt.Sprintf("wire: protocol %q does not declare type %s", p.name, t))
	}
	return tag
}

// TagOf is a generic convenience wrapper around Tag.
func TagOf[T any](p *Protocol) uint16 {
	return p.Tag(TypeOf[T]())
}

// Has reports whether t is part of the protocol.
func (p *Protocol) Has(t PayloadType) bool {
	_, ok := p.index[t]
	return ok
}

// Subprotocol is a named subset of a parent Protocol that preserves the
// parent's tag numbering — it is not compact. Identifying a type within
// a subprotocol yields the parent protocol's tag, so a subprotocol client
// and the full-protocol server remain wire-compatible.
type Subprotocol struct {
	parent *Protocol
	// member records which parent tags this subprotocol recognizes.
	member map[uint16]bool
}

// NewSubprotocol builds a Subprotocol view over parent restricted to types.
// Every type must already be declared on parent.
func NewSubprotocol(parent *Protocol, types ...PayloadType) *Subprotocol {
	s := &Subprotocol{parent: parent, member: make(map[uint16]bool, len(types))}
	for _, t := range types {
		s.member[parent.Tag(t)] = true
	}
	return s
}

// Parent returns the subprotocol's parent Protocol.
func (s *Subprotocol) Parent() *Protocol { return s.parent }

// Accepts reports whether tag is part of this subprotocol's view.
func (s *Subprotocol) Accepts(tag uint16) bool { return s.member[tag] }

// Tag resolves t to the parent protocol's tag, provided t is a member of
// this subprotocol.
func (s *Subprotocol) Tag(t PayloadType) uint16 {
	tag := s.parent.Tag(t)
	if !s.member[tag] {
		panic(fmt.Sprintf("wire: type %s is not part of this subprotocol", t))
	}
	return tag
}
