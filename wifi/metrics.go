package wifi

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the collectors updated by Manager and Service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	ConnectAttempts *prometheus.CounterVec
	ScanEntries     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg, if set.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wifijoin",
			Name:      "connect_attempts_total",
			Help:      "Connection attempts by outcome.",
		}, []string{"outcome"}),
		ScanEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wifijoin",
			Name:      "scan_entries",
			Help:      "Entries in the most recent merged scan.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ConnectAttempts, m.ScanEntries)
	}
	return m
}

func (m *Metrics) observeAttempt(outcome string) {
	if m == nil {
		return
	}
	m.ConnectAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeScan(n int) {
	if m == nil {
		return
	}
	m.ScanEntries.Set(float64(n))
}
