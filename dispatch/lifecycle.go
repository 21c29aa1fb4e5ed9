package dispatch

import "github.com/aautushka/protoserv/session"

// LifecycleFanout implements session.LifecycleEvents by fanning each
// event out to a Module first and then to every registered Component, in
// registration order (spec.md §4.F/§5: "module handlers run, then
// component handlers, in registration order").
type LifecycleFanout struct {
	module     session.LifecycleEvents
	components []session.LifecycleEvents
}

// NewLifecycleFanout builds a fanout around module; module may be nil if
// the protocol has no module-level lifecycle hooks.
func NewLifecycleFanout(module session.LifecycleEvents) *LifecycleFanout {
	return &LifecycleFanout{module: module}
}

// AddComponent appends a component's lifecycle hooks to the fanout.
func (f *LifecycleFanout) AddComponent(c session.LifecycleEvents) {
	f.components = append(f.components, c)
}

// Connected implements session.LifecycleEvents.
func (f *LifecycleFanout) Connected(s *session.Session) {
	if f.module != nil {
		f.module.Connected(s)
	}
	for _, c := range f.components {
		c.Connected(s)
	}
}

// Disconnected implements session.LifecycleEvents.
func (f *LifecycleFanout) Disconnected(s *session.Session) {
	if f.module != nil {
		f.module.Disconnected(s)
	}
	for _, c := range f.components {
		c.Disconnected(s)
	}
}
