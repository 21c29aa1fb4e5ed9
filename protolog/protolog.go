// Package protolog is the logging seam every other package takes a
// *slog.Logger through rather than reaching for the global logger
// directly. The teacher repo carries no logging dependency of its own,
// so this is the one ambient concern left to the standard library —
// log/slog is the idiomatic choice for a library-shaped module that
// must not impose a logging framework on its caller, and every example
// repo that does log (vango's cmd/ CLI output aside) logs through
// structured key/value pairs, which slog gives for free.
package protolog

import (
	"log/slog"
	"os"
)

// NewDefault returns a text-handler slog.Logger writing to stderr at
// level, suitable as a zero-configuration default for examples and
// tests. Production callers should construct and pass their own
// *slog.Logger instead.
func NewDefault(level slog.Level) *slog.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// Session returns a logger scoped with a session identifier, for
// consistent per-connection log correlation.
func Session(base *slog.Logger, id string) *slog.Logger {
	return base.With("session", id)
}
