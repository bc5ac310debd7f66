package auction

import (
	"candle/cryptoutil"
)

// Selection is the outcome of blowing the candle over a bid ledger.
type Selection struct {
	Cutoff uint64 // bids at or before this time are eligible
	Offset uint64 // Cutoff - start, in [0, duration)
	Index  int    // winning position in the ledger, -1 if there were no bids
}

// Found reports whether the ledger produced a winner.
func (s Selection) Found() bool { return s.Index >= 0 }

// SelectWinner blows the candle. The randomness is folded into an offset
// inside the window, and the latest bid placed at or before start+offset
// wins. The result depends only on its inputs.
func SelectWinner(bids []Bid, start, duration uint64, randomness []byte) (Selection, error) {
	if duration == 0 {
		return Selection{Index: -1}, ErrZeroDuration
	}

	if len(randomness) == 0 {
		return Selection{Index: -1}, ErrRandomnessUnavailable
	}

	var (
		offset = cryptoutil.HashRandomness(randomness) % duration
		cutoff = saturatingAdd(start, offset)
		sel    = Selection{Cutoff: cutoff, Offset: offset, Index: -1}
	)

	if len(bids) == 0 {
		return sel, nil
	}

	for i := len(bids) - 1; i >= 0; i-- {
		if bids[i].Time <= cutoff {
			sel.Index = i
			return sel, nil
		}
	}

	// Nothing was placed by the cutoff. The earliest bid wins, so a ledger
	// with bids always has a winner.
	sel.Index = 0

	return sel, nil
}
