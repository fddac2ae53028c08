package remoting

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CallsTotal counts calls by function id and outcome.
	CallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omnikit",
			Subsystem: "remoting",
			Name:      "calls_total",
			Help:      "Total number of remoting calls by function id and result",
		},
		[]string{"function_id", "result"},
	)

	// CallDuration measures call latency by function id.
	CallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "omnikit",
			Subsystem: "remoting",
			Name:      "call_duration_seconds",
			Help:      "Duration of remoting calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		},
		[]string{"function_id"},
	)
)

func callMetricsStart() time.Time { return time.Now() }

func recordCallResult(functionID uint32, result string, start time.Time) {
	fid := strconv.FormatUint(uint64(functionID), 10)
	CallsTotal.WithLabelValues(fid, result).Inc()
	CallDuration.WithLabelValues(fid).Observe(time.Since(start).Seconds())
}
