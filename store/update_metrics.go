package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"candle/metrics"
	"candle/trc"
)

const updateMetricsBatchSize = 100

// UpdateMetrics refreshes the store gauges. Auction status depends on the
// clock, so the caller supplies statusOf.
func UpdateMetrics(ctx context.Context, s Store, statusOf func(*Auction) Status) (err error) {
	cfg, err := s.SelectConfig(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		trc.Tracef(ctx, "no config yet")
		return nil
	case err != nil:
		return fmt.Errorf("select config: %w", err)
	}

	metrics.ConfigInfo.Reset()
	metrics.ConfigInfo.WithLabelValues(cfg.Owner, cfg.DefaultDenom, strconv.FormatBool(cfg.Enabled)).Set(1)
	metrics.AuctionCounter.Set(float64(cfg.AuctionCounter))

	type key struct {
		status  Status
		settled bool
	}

	counts := map[key]int{}
	for _, status := range []Status{StatusNotStarted, StatusOpeningPeriod, StatusEnded} {
		for _, settled := range []bool{false, true} {
			counts[key{status, settled}] = 0
		}
	}

	var total int
	for before := uint64(0); ; {
		batch, err := s.ListAuctions(ctx, before, updateMetricsBatchSize)
		if err != nil {
			return fmt.Errorf("list auctions before %d: %w", before, err)
		}

		for _, a := range batch {
			counts[key{statusOf(a), a.Settled}]++
		}
		total += len(batch)

		if len(batch) < updateMetricsBatchSize {
			break
		}
		before = batch[len(batch)-1].ID
	}

	trc.Tracef(ctx, "auction count %d", total)

	for k, n := range counts {
		metrics.AuctionsByStatus.WithLabelValues(string(k.status), strconv.FormatBool(k.settled)).Set(float64(n))
	}

	return nil
}
