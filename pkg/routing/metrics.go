package routing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the routing layer's prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	vendors       prometheus.Gauge
	decisions     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "vendor_config_fetch_total",
			Help:      "Vendor directory fetches by result.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "vendor_config_fetch_duration_seconds",
			Help:      "Latency of vendor directory fetches.",
			Buckets:   prometheus.DefBuckets,
		}),
		vendors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storefront",
			Name:      "vendor_snapshot_vendors",
			Help:      "Vendors in the current cached snapshot.",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "routing_decisions_total",
			Help:      "Routing decisions by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.fetches, m.fetchDuration, m.vendors, m.decisions)
	}
	return m
}

func (m *Metrics) observeFetch(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

func (m *Metrics) setVendors(n int) {
	if m == nil {
		return
	}
	m.vendors.Set(float64(n))
}

func (m *Metrics) decision(outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome).Inc()
}
