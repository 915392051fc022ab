package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

var (
	pointsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gradtape",
		Subsystem: "batch",
		Name:      "points_total",
		Help:      "Points evaluated by batch runs, by outcome.",
	}, []string{"status"})

	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gradtape",
		Subsystem: "batch",
		Name:      "runs_total",
		Help:      "Batch runs, by outcome.",
	}, []string{"status"})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gradtape",
		Subsystem: "batch",
		Name:      "run_duration_seconds",
		Help:      "Wall time of batch runs.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
	})
)
