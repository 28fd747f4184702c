package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus instruments. Run kinds label every
// series so the fresh-signals and 13F passes chart separately.
type Metrics struct {
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	Actions     *prometheus.CounterVec
	Scores      *prometheus.HistogramVec
	Confidence  *prometheus.HistogramVec
}

// New registers the engine instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wealthpulse",
			Name:      "snapshot_runs_total",
			Help:      "Snapshot runs by kind and outcome.",
		}, []string{"kind", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wealthpulse",
			Name:      "snapshot_run_duration_seconds",
			Help:      "Wall time of one snapshot run.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		Actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wealthpulse",
			Name:      "snapshot_actions_total",
			Help:      "Recommended actions by kind.",
		}, []string{"kind", "action"}),
		Scores: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wealthpulse",
			Name:      "snapshot_score",
			Help:      "Score distribution per run kind.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}, []string{"kind"}),
		Confidence: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wealthpulse",
			Name:      "snapshot_confidence",
			Help:      "Confidence distribution per run kind.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"kind"}),
	}
}

// ObserveResult records one scored row.
func (m *Metrics) ObserveResult(kind, action string, score int, confidence float64) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(kind, action).Inc()
	m.Scores.WithLabelValues(kind).Observe(float64(score))
	m.Confidence.WithLabelValues(kind).Observe(confidence)
}

// ObserveRun records one completed or failed run.
func (m *Metrics) ObserveRun(kind, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(kind, status).Inc()
	m.RunDuration.WithLabelValues(kind).Observe(seconds)
}
