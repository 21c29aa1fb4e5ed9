// Package config implements spec.md's key → value-string configuration
// model: Ip and Port are recognized and parsed here, everything else is
// forwarded to a module's on_configuration unchanged. Grounded on
// vango-go-vango/cmd/vango/dev.go's flag-overrides-config shape, via a
// spf13/cobra root command — the teacher's own go.mod lists no CLI
// library, but cobra is the pack's only command-line framework and
// spec.md §6 needs a process entry point, so it is adopted from there.
package config

import (
	"fmt"
	"strconv"
)

// DefaultIP is used when the "Ip" key is absent.
const DefaultIP = "127.0.0.1"

// Options is the raw key → value-string configuration passed to
// on_configuration, exactly as spec.md describes it.
type Options map[string]string

// Listen holds the two keys every module recognizes before its own
// on_configuration is ever called.
type Listen struct {
	IP   string
	Port uint16
}

// ErrMissingPort is returned when Options has no "Port" key — spec.md
// marks Port as required, unlike Ip which defaults.
var ErrMissingPort = fmt.Errorf("config: %q is required", "Port")

// ParseListen extracts and validates Ip/Port from opts, returning the
// remaining keys unchanged for forwarding to on_configuration.
func ParseListen(opts Options) (Listen, Options, error) {
	rest := make(Options, len(opts))
	for k, v := range opts {
		rest[k] = v
	}

	ip := DefaultIP
	if v, ok := rest["Ip"]; ok {
		ip = v
		delete(rest, "Ip")
	}

	portStr, ok := rest["Port"]
	if !ok {
		return Listen{}, nil, ErrMissingPort
	}
	delete(rest, "Port")

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Listen{}, nil, fmt.Errorf("config: invalid Port %q: %w", portStr, err)
	}

	return Listen{IP: ip, Port: uint16(port)}, rest, nil
}

// Addr formats l as a host:port string suitable for net.Dial/net.Listen.
func (l Listen) Addr() string {
	return fmt.Sprintf("%s:%d", l.IP, l.Port)
}
