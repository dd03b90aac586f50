package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pointsAwardedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "engagement_service",
		Subsystem: "progression",
		Name:      "points_awarded_total",
		Help:      "Total points awarded through activity completions.",
	})
	rankUpCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "engagement_service",
		Subsystem: "progression",
		Name:      "rank_ups_total",
		Help:      "Number of rank promotions.",
	})
	completionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "engagement_service",
		Subsystem: "ledger",
		Name:      "completions_total",
		Help:      "Activity completions, labeled by outcome (awarded or replay).",
	}, []string{"outcome"})
	notificationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "engagement_service",
		Subsystem: "notifications",
		Name:      "resolved_total",
		Help:      "Notifications leaving the queue, labeled by resolution.",
	}, []string{"resolution"})
	snapshotSavedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "engagement_service",
		Subsystem: "persistence",
		Name:      "last_snapshot_saved_timestamp_seconds",
		Help:      "Unix timestamp of the most recent user snapshot persisted.",
	})
)

func init() {
	prometheus.MustRegister(pointsAwardedCounter, rankUpCounter, completionCounter, notificationCounter, snapshotSavedGauge)
}

// RecordCompletion updates the ledger counters for one completion attempt.
func RecordCompletion(points int, awarded, rankChanged bool) {
	if !awarded {
		completionCounter.WithLabelValues("replay").Inc()
		return
	}
	completionCounter.WithLabelValues("awarded").Inc()
	pointsAwardedCounter.Add(float64(points))
	if rankChanged {
		rankUpCounter.Inc()
	}
}

// RecordNotificationResolution counts accept/dismiss outcomes.
func RecordNotificationResolution(resolution string) {
	notificationCounter.WithLabelValues(resolution).Inc()
}

// RecordSnapshotSaved updates the persistence watermark gauge.
func RecordSnapshotSaved(ts time.Time) {
	if ts.IsZero() {
		return
	}
	snapshotSavedGauge.Set(float64(ts.Unix()))
}
