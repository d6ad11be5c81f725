package metrics

import "github.com/prometheus/client_golang/prometheus"

// Scheduling exposes counters/histograms for the journey and slot engine.
type Scheduling struct {
	bookingsTotal      *prometheus.CounterVec
	stageCommitsTotal  *prometheus.CounterVec
	skippedWindows     prometheus.Counter
	projectionRebuilds *prometheus.CounterVec
	expansionLatency   prometheus.Histogram
}

func NewScheduling(reg prometheus.Registerer) *Scheduling {
	m := &Scheduling{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Public self-service booking attempts by result",
		}, []string{"result"}),
		stageCommitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "journey",
			Name:      "stage_commits_total",
			Help:      "Stage commits by status and result",
		}, []string{"status", "result"}),
		skippedWindows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "slots",
			Name:      "malformed_windows_skipped_total",
			Help:      "Availability windows skipped during expansion because they could not be parsed",
		}),
		projectionRebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "kanban",
			Name:      "rebuilds_total",
			Help:      "Kanban projection rebuilds by trigger",
		}, []string{"trigger"}),
		expansionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "slots",
			Name:      "expansion_seconds",
			Help:      "Latency of availability expansion plus conflict resolution",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.stageCommitsTotal, m.skippedWindows, m.projectionRebuilds, m.expansionLatency)
	return m
}

func (m *Scheduling) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(result).Inc()
}

func (m *Scheduling) ObserveStageCommit(status, result string) {
	if m == nil {
		return
	}
	m.stageCommitsTotal.WithLabelValues(status, result).Inc()
}

func (m *Scheduling) ObserveSkippedWindow() {
	if m == nil {
		return
	}
	m.skippedWindows.Inc()
}

func (m *Scheduling) ObserveProjectionRebuild(trigger string) {
	if m == nil {
		return
	}
	m.projectionRebuilds.WithLabelValues(trigger).Inc()
}

func (m *Scheduling) ObserveExpansion(seconds float64) {
	if m == nil {
		return
	}
	m.expansionLatency.Observe(seconds)
}
