package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the lead pipeline.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	statusUpdates    *prometheus.CounterVec
	storeLatency     *prometheus.HistogramVec
	followUpFailures *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "digigrow",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead submissions by outcome",
		}, []string{"outcome"}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "digigrow",
			Subsystem: "leads",
			Name:      "status_updates_total",
			Help:      "Admin lead status updates",
		}, []string{"status", "result"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "digigrow",
			Subsystem: "leads",
			Name:      "store_latency_seconds",
			Help:      "Latency of lead store operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		followUpFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "digigrow",
			Subsystem: "leads",
			Name:      "follow_up_failures_total",
			Help:      "Failed post-persistence follow-ups (alerts, events)",
		}, []string{"name"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.statusUpdates, m.storeLatency, m.followUpFailures)
	return m
}

func (m *LeadMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *LeadMetrics) ObserveStatusUpdate(status string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.statusUpdates.WithLabelValues(status, result).Inc()
}

func (m *LeadMetrics) ObserveStoreLatency(op string, seconds float64) {
	if m == nil {
		return
	}
	m.storeLatency.WithLabelValues(op).Observe(seconds)
}

func (m *LeadMetrics) ObserveFollowUpFailure(name string) {
	if m == nil {
		return
	}
	m.followUpFailures.WithLabelValues(name).Inc()
}
