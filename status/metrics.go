package status

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the server's prometheus collectors.
// All counters are safe for concurrent use; the serial core and the
// transport goroutines both touch them.
type Metrics struct {
	SessionsActive  prometheus.Gauge
	EndpointsActive prometheus.Gauge

	TicksTotal       prometheus.Counter
	RoundsTotal      prometheus.Counter
	BroadcastsTotal  *prometheus.CounterVec
	FramesDropped    prometheus.Counter
	InboundTotal     *prometheus.CounterVec
	InboundRejected  prometheus.Counter
	IntervalSwitches prometheus.Counter
	CoarseAdjusts    prometheus.Counter
}

// New builds and registers the metric set
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quizpulse",
			Name:      "sessions_active",
			Help:      "Registered player sessions.",
		}),
		EndpointsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quizpulse",
			Name:      "endpoints_active",
			Help:      "Open websocket endpoints.",
		}),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quizpulse",
			Name:      "clock_ticks_total",
			Help:      "Clock ticks fired.",
		}),
		RoundsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quizpulse",
			Name:      "rounds_total",
			Help:      "Play phases entered.",
		}),
		BroadcastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizpulse",
			Name:      "broadcasts_total",
			Help:      "Outbound fan-outs by event name.",
		}, []string{"event"}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quizpulse",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped on full or closed send queues.",
		}),
		InboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizpulse",
			Name:      "inbound_total",
			Help:      "Inbound events by name.",
		}, []string{"event"}),
		InboundRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quizpulse",
			Name:      "inbound_rejected_total",
			Help:      "Inbound frames rejected during validation.",
		}),
		IntervalSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quizpulse",
			Name:      "clock_interval_switches_total",
			Help:      "Fine calibration interval changes.",
		}),
		CoarseAdjusts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quizpulse",
			Name:      "coarse_adjusts_total",
			Help:      "Coarse cadence corrections applied.",
		}),
	}
	reg.MustRegister(
		m.SessionsActive, m.EndpointsActive,
		m.TicksTotal, m.RoundsTotal, m.BroadcastsTotal,
		m.FramesDropped, m.InboundTotal, m.InboundRejected,
		m.IntervalSwitches, m.CoarseAdjusts,
	)
	return m
}

// NewNop returns an unregistered metric set for tests
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
