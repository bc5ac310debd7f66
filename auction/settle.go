package auction

import (
	"fmt"

	"candle/store"
)

// CandleTransfers computes the transfers for an auction whose candle picked
// the bid at index winner: every other bid is refunded, the winning amount
// goes to the seller, and the escrowed assets go to the winner.
func CandleTransfers(a *Auction, winner int) ([]*Transfer, error) {
	if winner < 0 || winner >= len(a.Bids) {
		return nil, fmt.Errorf("winner index %d out of range for %d bids", winner, len(a.Bids))
	}

	var (
		ts  = make([]*Transfer, 0, len(a.Bids)+len(a.EscrowedAssets))
		win = a.Bids[winner]
	)

	for i, b := range a.Bids {
		if i == winner {
			continue
		}
		ts = append(ts, &Transfer{
			Kind:      store.TransferKindRefund,
			Recipient: b.Bidder,
			Funds:     &Funds{Payment: a.Payment, Amount: b.Amount},
		})
	}

	ts = append(ts, &Transfer{
		Kind:      store.TransferKindPayment,
		Recipient: a.Seller,
		Funds:     &Funds{Payment: a.Payment, Amount: win.Amount},
	})

	ts = append(ts, assetTransfers(a, win.Bidder)...)

	return sequence(a.ID, ts), nil
}

// FlowTransfers returns the escrowed assets of a failed auction to the
// seller. Auctions with bids never flow.
func FlowTransfers(a *Auction) ([]*Transfer, error) {
	if len(a.Bids) > 0 || a.ProvisionalWinner != nil {
		return nil, badRequestf("auction %d has %d bid(s) and cannot flow", a.ID, len(a.Bids))
	}

	return sequence(a.ID, assetTransfers(a, a.Seller)), nil
}

// ClaimTransfers delivers the escrowed assets to the provisional winner,
// who must be the claimant. No funds move.
func ClaimTransfers(a *Auction, claimant string) ([]*Transfer, error) {
	if a.ProvisionalWinner == nil || a.ProvisionalWinner.Bidder != claimant {
		return nil, fmt.Errorf("%s: %w", claimant, ErrNotWinner)
	}

	return sequence(a.ID, assetTransfers(a, claimant)), nil
}

func assetTransfers(a *Auction, recipient string) []*Transfer {
	ts := make([]*Transfer, 0, len(a.EscrowedAssets))
	for _, asset := range a.EscrowedAssets {
		asset := asset
		ts = append(ts, &Transfer{
			Kind:      store.TransferKindAsset,
			Recipient: recipient,
			Asset:     &asset,
		})
	}
	return ts
}

func sequence(auctionID uint64, ts []*Transfer) []*Transfer {
	for i, t := range ts {
		t.AuctionID = auctionID
		t.Seq = i
	}
	return ts
}
