package binning

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var timeNow = time.Now

var (
	BinningRecomputeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binning_recompute_total",
			Help: "Count of full bin recomputations by feature.",
		},
		[]string{"feature"},
	)

	BinningRecomputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "binning_recompute_duration_seconds",
		Help:    "Time spent recomputing bins, summary and table.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	})

	BinningDragMovesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binning_drag_moves_total",
			Help: "Count of drag moves by outcome (accepted, rejected).",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(BinningRecomputeTotal, BinningRecomputeDuration, BinningDragMovesTotal)
}

func observeRecompute(feature string, start time.Time) {
	BinningRecomputeTotal.WithLabelValues(feature).Inc()
	BinningRecomputeDuration.Observe(timeNow().Sub(start).Seconds())
}

func observeDragMove(accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	BinningDragMovesTotal.WithLabelValues(outcome).Inc()
}
