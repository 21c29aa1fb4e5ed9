package server

import (
	"io"
	"log/slog"

	"github.com/aautushka/protoserv/metrics"
)

// Option customizes Server construction.
type Option func(*Server)

// WithMetrics wires Prometheus collectors into dispatch, the session
// pools, and the connector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger overrides the default stderr text logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithStdin enables the stdin command stream (spec.md §4.J), reading
// lines from r and printing help text when the built-in "help" command
// is received.
func WithStdin(r io.Reader, help string) Option {
	return func(s *Server) {
		s.stdinReader = r
		s.stdinHelp = help
	}
}
