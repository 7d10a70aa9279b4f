package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess          = "success"
	OutcomeFetchFailed      = "fetch_failed"
	OutcomeValidationFailed = "validation_failed"
)

var (
	pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecotracker_polls_total",
		Help: "Device polls by outcome",
	}, []string{"outcome"})

	pollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ecotracker_poll_duration_seconds",
		Help:    "Duration of device polls",
		Buckets: prometheus.DefBuckets,
	})

	lastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ecotracker_last_success_timestamp_seconds",
		Help: "Last successful poll timestamp (epoch seconds)",
	})

	snapshotFields = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ecotracker_snapshot_fields",
		Help: "Number of fields in the current snapshot",
	})
)

func ObservePoll(outcome string, duration time.Duration) {
	pollsTotal.WithLabelValues(outcome).Inc()
	pollDuration.Observe(duration.Seconds())
	if outcome == OutcomeSuccess {
		lastSuccess.Set(float64(time.Now().Unix()))
	}
}

func SetSnapshotFields(n int) {
	snapshotFields.Set(float64(n))
}
