package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var opWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "candle",
	Name:      "op_wait_seconds",
	Help:      "Time spent waiting for blocking calls to e.g. the store, the randomness beacon, etc.",
}, []string{"op"})

func OpWait(op string, took time.Duration) {
	opWaitSeconds.WithLabelValues(op).Observe(took.Seconds())
}

// OpWaitSince is meant to be deferred: defer metrics.OpWaitSince("op", time.Now()).
func OpWaitSince(op string, begin time.Time) {
	OpWait(op, time.Since(begin))
}

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
