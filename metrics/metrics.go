// Package metrics wires the observability hooks spec.md calls out
// explicitly — dispatch's unhandled-tag counter (§4.F) and the
// session-count/correlator-pending gauges implied by §5's resource
// model — onto Prometheus collectors. Grounded on
// vango-go-vango/pkg/middleware/metrics.go's promauto-factory shape,
// scoped to one Registerer per server instance rather than a package
// singleton, since a protoserv process may run more than one reactor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and gauges a server instance reports.
type Metrics struct {
	FramesDispatched   *prometheus.CounterVec
	UnhandledFrames    *prometheus.CounterVec
	HandlerErrors      *prometheus.CounterVec
	SessionsLive       prometheus.Gauge
	CorrelatorPending  prometheus.Gauge
	ReconnectAttempts  prometheus.Counter
}

// New registers a fresh set of collectors on reg. Pass
// prometheus.NewRegistry() for an isolated registry (tests, multiple
// instances in one process) or prometheus.DefaultRegisterer for the
// process-wide default.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FramesDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dispatched_total",
			Help:      "Total number of inbound frames successfully dispatched to a handler.",
		}, []string{"tag"}),
		UnhandledFrames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_unhandled_total",
			Help:      "Total number of inbound frames with no registered module or component handler.",
		}, []string{"tag"}),
		HandlerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_errors_total",
			Help:      "Total number of decode or handler errors, by tag.",
		}, []string{"tag"}),
		SessionsLive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_live",
			Help:      "Number of sessions currently resident in the session pool.",
		}),
		CorrelatorPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "correlator_pending",
			Help:      "Number of request/reply subscriptions currently awaiting delivery.",
		}),
		ReconnectAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnect_attempts_total",
			Help:      "Total number of outbound reconnect attempts made by the connector.",
		}),
	}
}
