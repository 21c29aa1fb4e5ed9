// Package dispatch implements spec.md §4.F: mapping a wire tag to a
// typed handler, with two-level fan-out (module, then components), plus
// the connection-lifecycle and configuration/command fan-outs of
// §4.F and §6.
//
// The source's SFINAE-style overload detection over three handler
// shapes (conn&,msg&; conn*,msg&; msg&) has no Go analogue — Go has no
// overloading — so it collapses to one canonical signature,
// func(*session.Session, T) (R, bool); a handler that doesn't need the
// connection simply ignores its first argument. "Handler presence
// checks become trait method defaults" (spec.md §9) maps directly onto
// ModuleBase/ComponentBase: embeddable no-op implementations, the same
// pattern generated protobuf service stubs use for Unimplemented*Server
// types.
package dispatch

// Module is the full set of callbacks a protocol module may implement.
// Embed ModuleBase to get no-op defaults for whichever you don't need.
type Module interface {
	OnInitialized()
	OnDeinitialized()
	OnConfiguration(opts map[string]string)
	OnCommand(name string, args []string)
}

// ModuleBase supplies no-op defaults for Module; embed it in a concrete
// module type and override only the methods that matter.
type ModuleBase struct{}

func (ModuleBase) OnInitialized()                          {}
func (ModuleBase) OnDeinitialized()                        {}
func (ModuleBase) OnConfiguration(opts map[string]string)   {}
func (ModuleBase) OnCommand(name string, args []string)     {}

// Component contributes additional handlers alongside a Module. It has
// no required methods of its own — message and lifecycle handlers are
// registered onto the Table/LifecycleFanout directly — Component exists
// as a marker/registration anchor so components can be grouped and
// enumerated (e.g. for post_component's "first matching component"
// rule).
type Component interface {
	ComponentName() string
}

// ComponentBase supplies a default ComponentName derived from nothing in
// particular; concrete components should override it for diagnostics.
type ComponentBase struct{ Name string }

func (c ComponentBase) ComponentName() string {
	if c.Name == "" {
		return "component"
	}
	return c.Name
}
