package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ConfigInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "candle",
	Name:      "config_info",
	Help:      "Metadata for the current auction configuration.",
}, []string{"owner", "default_denom", "enabled"})

var AuctionCounter = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "candle",
	Name:      "auction_counter",
	Help:      "Highest auction ID assigned so far.",
})

var AuctionsByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "candle",
	Name:      "auctions",
	Help:      "Number of known auctions, by computed status and settlement state.",
}, []string{"status", "settled"})
