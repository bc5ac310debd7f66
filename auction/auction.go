package auction

import (
	"math"
	"math/big"

	"candle/store"

	sdkmath "cosmossdk.io/math"
)

// These type aliases keep the API of `package auction` from leaking types
// defined in `package store`.
type (
	Config       = store.Config
	Auction      = store.Auction
	Bid          = store.Bid
	PaymentAsset = store.PaymentAsset
	PaymentKind  = store.PaymentKind
	EscrowAsset  = store.EscrowAsset
	Settlement   = store.Settlement
	Transfer     = store.Transfer
	Funds        = store.Funds
	Status       = store.Status
)

const (
	StatusNotStarted    = store.StatusNotStarted
	StatusOpeningPeriod = store.StatusOpeningPeriod
	StatusEnded         = store.StatusEnded
)

// RoundSecurityMargin is added to the auction ID to pick the randomness
// round used to blow its candle.
const RoundSecurityMargin = 10

// MaxAmount is the largest bid or price the engine accepts, 2^128-1.
var MaxAmount = sdkmath.NewUintFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)))

// EndTime is the last second of the bidding window. It saturates instead of
// wrapping.
func EndTime(start, duration uint64) uint64 {
	return saturatingAdd(start, duration)
}

// StatusAt computes the status of a window at the given time. The window is
// inclusive at both ends.
func StatusAt(start, duration, now uint64) Status {
	switch {
	case now < start:
		return StatusNotStarted
	case now <= EndTime(start, duration):
		return StatusOpeningPeriod
	default:
		return StatusEnded
	}
}

// StatusOf is StatusAt for an auction.
func StatusOf(a *Auction, now uint64) Status {
	return StatusAt(a.StartTime, a.Duration, now)
}

// BidFloor is the minimum amount the next bid must offer.
func BidFloor(a *Auction) sdkmath.Uint {
	floor := sdkmath.ZeroUint()
	if a.MinPrice != nil && !a.MinPrice.IsNil() {
		floor = *a.MinPrice
	}
	if a.ProvisionalWinner != nil {
		floor = sdkmath.MaxUint(floor, a.ProvisionalWinner.Amount)
	}
	return floor
}

// RoundFor is the randomness round for the given auction.
func RoundFor(id uint64) uint64 {
	return saturatingAdd(id, RoundSecurityMargin)
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func boolString(b bool, ifTrue, ifFalse string) string {
	if b {
		return ifTrue
	}
	return ifFalse
}
