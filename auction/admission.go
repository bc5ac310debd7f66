package auction

import (
	"math"

	"candle/store"

	sdkmath "cosmossdk.io/math"
	"golang.org/x/exp/slices"
)

// Coin is an amount of native currency attached to a bid.
type Coin struct {
	Denom  string       `json:"denom"`
	Amount sdkmath.Uint `json:"amount"`
}

// paymentFunc extracts the offered amount from whatever the bidder sent,
// given the payment asset of the auction.
type paymentFunc func(PaymentAsset) (sdkmath.Uint, error)

// nativePayment takes the attached coin in the auction's denom. Missing
// coins count as zero, which the floor check then deals with.
func nativePayment(funds []Coin) paymentFunc {
	return func(p PaymentAsset) (sdkmath.Uint, error) {
		if p.Kind != store.PaymentKindNative {
			return sdkmath.Uint{}, badRequestf("auction is paid in %s, not native funds", p)
		}
		for _, c := range funds {
			if c.Denom == p.Ref && !c.Amount.IsNil() {
				return c.Amount, nil
			}
		}
		return sdkmath.ZeroUint(), nil
	}
}

func fungiblePayment(contract string, amount sdkmath.Uint) paymentFunc {
	return func(p PaymentAsset) (sdkmath.Uint, error) {
		if p.Kind != store.PaymentKindFungible || p.Ref != contract {
			return sdkmath.Uint{}, badRequestf("unsupported contract %q, auction is paid in %s", contract, p)
		}
		if amount.IsNil() {
			return sdkmath.ZeroUint(), nil
		}
		return amount, nil
	}
}

// admitBid runs the admission rules in order and, if they all pass, appends
// the bid to the ledger. Nothing is mutated on failure.
func admitBid(cfg *Config, a *Auction, now uint64, bidder string, pay paymentFunc) (Bid, error) {
	if !cfg.Enabled {
		return Bid{}, ErrAuctionDisabled
	}

	if status := StatusOf(a, now); status != StatusOpeningPeriod {
		return Bid{}, &NotOpeningPeriodError{Start: a.StartTime, End: EndTime(a.StartTime, a.Duration)}
	}

	amount, err := pay(a.Payment)
	if err != nil {
		return Bid{}, err
	}

	if amount.GT(MaxAmount) {
		return Bid{}, badRequestf("amount %s exceeds %s", amount, MaxAmount)
	}

	if floor := BidFloor(a); amount.LT(floor) {
		return Bid{}, &PriceTooLowError{MinPrice: floor, Current: amount}
	}

	if bidder == "" {
		return Bid{}, badRequestf("missing bidder")
	}

	if a.BidCount == math.MaxUint32 {
		return Bid{}, badRequestf("auction %d has too many bids", a.ID)
	}

	bid := Bid{Bidder: bidder, Time: now, Amount: amount}
	winner := bid

	a.Bids = append(a.Bids, bid)
	a.BidCount++
	a.ProvisionalWinner = &winner

	return bid, nil
}

// admitDeposit appends an escrow asset to an auction that hasn't opened yet.
func admitDeposit(cfg *Config, a *Auction, now uint64, d Deposit) error {
	if !cfg.Enabled {
		return ErrAuctionDisabled
	}

	if status := StatusOf(a, now); status != StatusNotStarted {
		return badRequestf("auction %d is %s, deposits close when bidding opens", a.ID, status)
	}

	if !slices.Contains(cfg.AllowedDepositors, d.Contract) {
		return badRequestf("unsupported contract %q", d.Contract)
	}

	if d.Sender != a.Seller {
		return badRequestf("depositor %s is not the seller of auction %d", d.Sender, a.ID)
	}

	if d.TokenID == "" {
		return badRequestf("missing token ID")
	}

	a.EscrowedAssets = append(a.EscrowedAssets, EscrowAsset{Contract: d.Contract, TokenID: d.TokenID})

	return nil
}

// newAuction validates creation parameters against the config and returns
// the auction that would be assigned the next ID. The caller persists both.
func newAuction(cfg *Config, now uint64, seller string, p CreateParams) (*Auction, error) {
	if !cfg.Enabled {
		return nil, ErrAuctionDisabled
	}

	if seller == "" {
		return nil, badRequestf("missing seller")
	}

	if now > EndTime(p.StartTime, p.Duration) {
		return nil, badRequestf("bad timestamp setting: window [%d, %d] is already closed", p.StartTime, EndTime(p.StartTime, p.Duration))
	}

	if p.Duration == 0 || p.Duration < cfg.MinDuration || p.Duration > cfg.MaxDuration {
		return nil, &DurationOutOfRangeError{Duration: p.Duration, Min: cfg.MinDuration, Max: cfg.MaxDuration}
	}

	var payment PaymentAsset
	switch {
	case p.Denom != "" && p.PayToken == "":
		payment = PaymentAsset{Kind: store.PaymentKindNative, Ref: p.Denom}
	case p.Denom == "" && p.PayToken != "":
		if !slices.Contains(cfg.AllowedDepositors, p.PayToken) {
			return nil, badRequestf("unsupported pay token %q", p.PayToken)
		}
		payment = PaymentAsset{Kind: store.PaymentKindFungible, Ref: p.PayToken}
	default:
		return nil, badRequestf("bad payment setting: exactly one of denom and pay token is required")
	}

	if p.MinPrice != nil && p.MinPrice.GT(MaxAmount) {
		return nil, badRequestf("min price %s exceeds %s", p.MinPrice, MaxAmount)
	}

	if cfg.AuctionCounter == math.MaxUint64 {
		return nil, badRequestf("auction IDs exhausted")
	}

	a := &Auction{
		ID:        cfg.AuctionCounter + 1,
		Name:      p.Name,
		Seller:    seller,
		StartTime: p.StartTime,
		Duration:  p.Duration,
		Payment:   payment,
	}

	if p.MinPrice != nil && !p.MinPrice.IsNil() {
		minPrice := *p.MinPrice
		a.MinPrice = &minPrice
	}

	return a, nil
}
