package uacore

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the Prometheus instrumentation for the address space
// and the client publish engine.
type Metrics struct {
	BuildInfo *prometheus.GaugeVec

	// Address space metrics
	NodesRegistered        *prometheus.GaugeVec
	BrowsePathTranslations *prometheus.CounterVec

	// Publish engine metrics
	PublishRequests        prometheus.Counter
	PublishResponses       *prometheus.CounterVec
	PendingPublishRequests prometheus.Gauge
	AcknowledgementsQueued prometheus.Counter
	ActiveSubscriptions    prometheus.Gauge
}

// Publish response outcome labels.
const (
	outcomeNotification = "notification"
	outcomeKeepAlive    = "keep_alive"
	outcomeDropped      = "dropped"
	outcomeError        = "error"
)

// NewMetrics creates a new Metrics instance. The collectors are not
// registered; use Register to attach them to a registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "uacore",
				Name:      "build_info",
				Help:      "Module version, always 1",
			},
			[]string{"version"},
		),

		NodesRegistered: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "uacore",
				Subsystem: "addressspace",
				Name:      "nodes_registered",
				Help:      "Number of nodes registered, by node class",
			},
			[]string{"class"},
		),

		BrowsePathTranslations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "uacore",
				Subsystem: "addressspace",
				Name:      "browse_path_translations_total",
				Help:      "Browse path translations, by result status code",
			},
			[]string{"status"},
		),

		PublishRequests: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "uacore",
				Subsystem: "publish",
				Name:      "requests_total",
				Help:      "Publish requests issued",
			},
		),

		PublishResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "uacore",
				Subsystem: "publish",
				Name:      "responses_total",
				Help:      "Publish responses received, by outcome",
			},
			[]string{"outcome"},
		),

		PendingPublishRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "uacore",
				Subsystem: "publish",
				Name:      "pending_requests",
				Help:      "Publish requests currently outstanding",
			},
		),

		AcknowledgementsQueued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "uacore",
				Subsystem: "publish",
				Name:      "acknowledgements_queued_total",
				Help:      "Subscription acknowledgements queued for the next request",
			},
		),

		ActiveSubscriptions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "uacore",
				Subsystem: "publish",
				Name:      "active_subscriptions",
				Help:      "Subscriptions with a registered notification callback",
			},
		),
	}

	m.BuildInfo.WithLabelValues(Version).Set(1)

	return m
}

// Register registers all collectors with a Prometheus registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.BuildInfo,
		m.NodesRegistered,
		m.BrowsePathTranslations,
		m.PublishRequests,
		m.PublishResponses,
		m.PendingPublishRequests,
		m.AcknowledgementsQueued,
		m.ActiveSubscriptions,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister registers all collectors and panics on error.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	if err := m.Register(reg); err != nil {
		panic(err)
	}
}
