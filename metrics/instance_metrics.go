package metrics

import (
	"time"

	"candle/build"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var startedAt = time.Now().UTC()

var _ = promauto.NewGaugeFunc(prometheus.GaugeOpts{
	Namespace: "candle",
	Name:      "build_info",
	Help:      "Build metadata of the running candled binary.",
	ConstLabels: prometheus.Labels{
		"build_version": build.Version,
		"build_date":    build.Date,
	},
}, func() float64 { return 1 })

var _ = promauto.NewGaugeFunc(prometheus.GaugeOpts{
	Namespace: "candle",
	Name:      "start_timestamp",
	Help:      "UNIX timestamp (UTC) when the auction engine started.",
}, func() float64 { return float64(startedAt.Unix()) })

var _ = promauto.NewCounterFunc(prometheus.CounterOpts{
	Namespace: "candle",
	Name:      "up_seconds_total",
	Help:      "Seconds since the auction engine started, meant for use with `resets()`.",
}, func() float64 { return time.Since(startedAt).Seconds() })

// EngineInfo describes how this instance settles auctions. Exactly one
// series is set, by SetEngineInfo.
var EngineInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "candle",
	Name:      "engine_info",
	Help:      "Settlement mode, store kind and address format of this instance.",
}, []string{"settlement_mode", "store", "address_prefix"})

// SetEngineInfo records the runtime choices made at startup. An empty
// prefix means any non-empty address is accepted.
func SetEngineInfo(settlementMode, storeKind, addressPrefix string) {
	if addressPrefix == "" {
		addressPrefix = "any"
	}
	EngineInfo.Reset()
	EngineInfo.WithLabelValues(settlementMode, storeKind, addressPrefix).Set(1)
}
