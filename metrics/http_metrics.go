package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HTTPRequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "candle",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms - 8s+
}, []string{"route", "code"})

var HTTPResponseBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "candle",
	Name:      "http_response_bytes_total",
	Help:      "Total bytes written in HTTP response bodies.",
}, []string{"route"})
