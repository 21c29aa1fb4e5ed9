package session

import (
	"reflect"

	"github.com/aautushka/protoserv/wire"
)

// userDataSlot stores at most one value per concrete type, mirroring the
// teacher's api.Context key/value store (internal/session/cancel.go)
// narrowed from string keys to Go types, since spec.md §3 describes the
// slot as "typed by the user; framework only stores and yields by
// requested type".
type userDataSlot struct {
	values map[reflect.Type]any
}

func (u *userDataSlot) set(v any) {
	if u.values == nil {
		u.values = make(map[reflect.Type]any, 1)
	}
	u.values[reflect.TypeOf(v)] = v
}

func (u *userDataSlot) get(t reflect.Type) (any, bool) {
	if u.values == nil {
		return nil, false
	}
	v, ok := u.values[t]
	return v, ok
}

// SetUserData stores v in the session's user-data slot, keyed by v's
// concrete type. A later SetUserData call with the same type overwrites.
func (s *Session) SetUserData(v any) {
	s.userData.set(v)
}

// GetUserData retrieves the value previously stored via SetUserData for
// type T, if any.
func GetUserData[T any](s *Session) (T, bool) {
	var zero T
	v, ok := s.userData.get(wire.TypeOf[T]())
	if !ok {
		return zero, false
	}
	return v.(T), true
}
