// Package server ties the reactor, session pool, dispatch table,
// correlator, connector, and stdin command stream together into the
// single top-level facade a process constructs (spec.md §6's Module
// API surface). Grounded on the teacher's server/server.go and
// server/types.go (Config/DefaultConfig/Server-facade/ServerOption
// shape), rebuilt around this module's session/reactor/dispatch types
// in place of the teacher's NUMA buffer-pool WebSocket listener.
package server

import "time"

// Config holds process-wide server configuration.
type Config struct {
	ListenAddr      string        // TCP bind address, e.g. ":9000"
	MaxFrameLen     int           // per-session frame-size ceiling; 0 uses session.DefaultMaxFrameLen
	IdleCheckPeriod time.Duration // how often AsyncDisconnectInactiveClients/Servers re-checks
	ShutdownTimeout time.Duration // grace period for Shutdown to let in-flight I/O drain
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      ":9000",
		MaxFrameLen:     0,
		IdleCheckPeriod: time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}
