package actions

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var histogramActionTime = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "expensetrack",
		Subsystem: "client",
		Name:      "histogram_action_time_seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	},
	[]string{"action", "failed"},
)

func observeAction(a Action, elapsed time.Duration, failed bool) {
	histogramActionTime.
		WithLabelValues(string(a), strconv.FormatBool(failed)).
		Observe(elapsed.Seconds())
}
