package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var AuctionRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "candle",
	Name:      "auction_requests_total",
	Help:      "Total number of auction operations seen by the service.",
}, []string{"op", "result"})

var BidsSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "candle",
	Name:      "bids_submitted_total",
	Help:      "Total number of bids submitted to the service.",
}, []string{"payment_kind", "result"})

var DepositsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "candle",
	Name:      "deposits_total",
	Help:      "Total number of escrow asset deposits submitted to the service.",
}, []string{"result"})

var SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "candle",
	Name:      "settlements_total",
	Help:      "Total number of settlement attempts, by outcome.",
}, []string{"outcome", "result"})

var TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "candle",
	Name:      "transfers_total",
	Help:      "Total number of transfer instructions emitted by settlement.",
}, []string{"kind"})

var CandleCutoffOffsetRatio = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "candle",
	Name:      "cutoff_offset_ratio",
	Help:      "Position of the drawn cutoff inside the auction window, as a fraction of its duration.",
	Buckets:   prometheus.LinearBuckets(0, 0.1, 10),
})

var RandomnessRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "candle",
	Name:      "randomness_requests_total",
	Help:      "Total number of randomness beacon queries, by result.",
}, []string{"result"})
