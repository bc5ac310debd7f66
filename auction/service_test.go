package auction_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"candle/auction"
	"candle/randomness"
	"candle/store"
	"candle/store/memstore"
	"candle/store/pgstore"
	"candle/store/storetest"

	sdkmath "cosmossdk.io/math"
	"github.com/go-kit/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func newStore(t *testing.T, ctx context.Context) store.Store {
	switch {
	case os.Getenv("PGCONNSTRING") != "":
		t.Logf("using Postgres store")
		return pgstore.NewTestStore(t)
	default:
		t.Logf("using memory store (set PGCONNSTRING to use Postgres)")
		return memstore.NewStore()
	}
}

type fixture struct {
	ctx        context.Context
	store      store.Store
	randomness *randomness.TestProvider
	service    *auction.CoreService
	now        uint64

	owner  string
	seller string
	nft    string
	token  string
}

func newFixture(t *testing.T, options ...auction.Option) *fixture {
	t.Helper()

	f := &fixture{
		ctx:        context.Background(),
		randomness: &randomness.TestProvider{Values: map[uint64][]byte{}},
		now:        storetest.StartTime - 50,
		owner:      storetest.GenBech32Addr(t, storetest.Network),
		seller:     storetest.GenBech32Addr(t, storetest.Network),
		nft:        storetest.GenBech32Addr(t, storetest.Network),
		token:      storetest.GenBech32Addr(t, storetest.Network),
	}
	f.store = newStore(t, f.ctx)

	options = append([]auction.Option{
		auction.WithClock(func() uint64 { return f.now }),
		auction.WithAddressValidator(auction.Bech32Addresses(storetest.Network)),
	}, options...)
	f.service = auction.NewCoreService(f.store, f.randomness, log.NewNopLogger(), options...)

	if _, err := f.service.Instantiate(f.ctx, f.owner, auction.InstantiateParams{
		MinDuration:       10,
		MaxDuration:       1000,
		Enabled:           true,
		DefaultDenom:      storetest.Denom,
		AllowedDepositors: []string{f.nft, f.token},
		RandomnessSource:  "test",
	}); err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	return f
}

// newAuction creates a native auction over [StartTime, StartTime+Duration]
// and escrows two assets into it.
func (f *fixture) newAuction(t *testing.T, minPrice *sdkmath.Uint) *auction.Auction {
	t.Helper()

	f.now = storetest.StartTime - 50

	a, err := f.service.CreateAuction(f.ctx, f.seller, auction.CreateParams{
		Name:      "lot",
		StartTime: storetest.StartTime,
		Duration:  storetest.Duration,
		Denom:     storetest.Denom,
		MinPrice:  minPrice,
	})
	if err != nil {
		t.Fatalf("create auction: %v", err)
	}

	for _, tokenID := range []string{"1", "2"} {
		if _, err := f.service.DepositAsset(f.ctx, auction.Deposit{AuctionID: a.ID, Contract: f.nft, Sender: f.seller, TokenID: tokenID}); err != nil {
			t.Fatalf("deposit %s: %v", tokenID, err)
		}
	}

	return a
}

func (f *fixture) bid(t *testing.T, id uint64, at, amount uint64) (string, error) {
	t.Helper()

	f.now = at
	bidder := storetest.GenBech32Addr(t, storetest.Network)
	_, err := f.service.BidNative(f.ctx, auction.NativeBid{
		AuctionID: id,
		Sender:    bidder,
		Funds:     []auction.Coin{{Denom: storetest.Denom, Amount: sdkmath.NewUint(amount)}},
	})
	return bidder, err
}

func (f *fixture) mustBid(t *testing.T, id uint64, at, amount uint64) string {
	t.Helper()

	bidder, err := f.bid(t, id, at, amount)
	if err != nil {
		t.Fatalf("bid %d at %d: %v", amount, at, err)
	}
	return bidder
}

type transferSummary struct {
	Kind      store.TransferKind
	Recipient string
	Amount    string
	TokenID   string
}

func summarize(ts []*auction.Transfer) []transferSummary {
	out := make([]transferSummary, 0, len(ts))
	for _, t := range ts {
		s := transferSummary{Kind: t.Kind, Recipient: t.Recipient}
		if t.Funds != nil {
			s.Amount = t.Funds.Amount.String()
		}
		if t.Asset != nil {
			s.TokenID = t.Asset.TokenID
		}
		out = append(out, s)
	}
	return out
}

func TestServiceScenarioSingleBidder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.newAuction(t, nil)
	alice := f.mustBid(t, a.ID, storetest.StartTime+10, 500)

	f.randomness.Values[auction.RoundFor(a.ID)] = randomnessForOffset(t, storetest.Duration, 42)
	f.now = storetest.StartTime + storetest.Duration + 1

	receipt, err := f.service.BlowCandle(f.ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}

	want := []transferSummary{
		{Kind: store.TransferKindPayment, Recipient: f.seller, Amount: "500"},
		{Kind: store.TransferKindAsset, Recipient: alice, TokenID: "1"},
		{Kind: store.TransferKindAsset, Recipient: alice, TokenID: "2"},
	}
	if have := summarize(receipt.Transfers); !cmp.Equal(want, have) {
		t.Fatal(cmp.Diff(want, have))
	}

	settlement := receipt.Auction.Settlement
	if want, have := uint64(storetest.StartTime+42), settlement.Cutoff; want != have {
		t.Fatalf("cutoff: want %d, have %d", want, have)
	}
	if want, have := auction.RoundFor(a.ID), settlement.Round; want != have {
		t.Fatalf("round: want %d, have %d", want, have)
	}
	if want, have := []uint64{auction.RoundFor(a.ID)}, f.randomness.Calls(); !cmp.Equal(want, have) {
		t.Fatalf("randomness calls: %s", cmp.Diff(want, have))
	}

	stored, err := f.service.Transfers(f.ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if have := summarize(stored); !cmp.Equal(want, have) {
		t.Fatalf("queued transfers: %s", cmp.Diff(want, have))
	}
}

func TestServiceScenarioEarlyCutoff(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.newAuction(t, nil)
	low := f.mustBid(t, a.ID, storetest.StartTime+5, 100)
	high := f.mustBid(t, a.ID, storetest.StartTime+50, 200)

	f.randomness.Values[auction.RoundFor(a.ID)] = randomnessForOffset(t, storetest.Duration, 20)
	f.now = storetest.StartTime + storetest.Duration + 1

	receipt, err := f.service.BlowCandle(f.ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}

	want := []transferSummary{
		{Kind: store.TransferKindRefund, Recipient: high, Amount: "200"},
		{Kind: store.TransferKindPayment, Recipient: f.seller, Amount: "100"},
		{Kind: store.TransferKindAsset, Recipient: low, TokenID: "1"},
		{Kind: store.TransferKindAsset, Recipient: low, TokenID: "2"},
	}
	if have := summarize(receipt.Transfers); !cmp.Equal(want, have) {
		t.Fatal(cmp.Diff(want, have))
	}

	if want, have := low, receipt.Auction.Settlement.Winner.Bidder; want != have {
		t.Fatalf("winner: want %s, have %s", want, have)
	}
	if want, have := high, receipt.Auction.ProvisionalWinner.Bidder; want != have {
		t.Fatalf("provisional winner: want %s, have %s", want, have)
	}
}

func TestServiceScenarioMinPriceBoundary(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	minPrice := sdkmath.NewUint(1000)
	a := f.newAuction(t, &minPrice)

	_, err := f.bid(t, a.ID, storetest.StartTime+1, 999)
	var ptl *auction.PriceTooLowError
	if !errors.As(err, &ptl) {
		t.Fatalf("want %T, have %v", ptl, err)
	}
	if want, have := "1000", ptl.MinPrice.String(); want != have {
		t.Fatalf("min price: want %s, have %s", want, have)
	}
	if want, have := "999", ptl.Current.String(); want != have {
		t.Fatalf("current: want %s, have %s", want, have)
	}

	f.mustBid(t, a.ID, storetest.StartTime+2, 1000)

	stored, err := f.service.Auction(f.ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if want, have := uint32(1), stored.BidCount; want != have {
		t.Fatalf("bid count: want %d, have %d", want, have)
	}
}

func TestServiceScenarioFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.newAuction(t, nil)

	f.now = storetest.StartTime + storetest.Duration + 1

	if _, err := f.service.BlowCandle(f.ctx, a.ID); !errors.Is(err, auction.ErrBadRequest) {
		t.Fatalf("blow candle without bids: want %v, have %v", auction.ErrBadRequest, err)
	}

	receipt, err := f.service.FlowRefund(f.ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}

	want := []transferSummary{
		{Kind: store.TransferKindAsset, Recipient: f.seller, TokenID: "1"},
		{Kind: store.TransferKindAsset, Recipient: f.seller, TokenID: "2"},
	}
	if have := summarize(receipt.Transfers); !cmp.Equal(want, have) {
		t.Fatal(cmp.Diff(want, have))
	}

	if _, err := f.service.FlowRefund(f.ctx, a.ID); !errors.Is(err, auction.ErrAlreadySettled) {
		t.Fatalf("second flow: want %v, have %v", auction.ErrAlreadySettled, err)
	}

	if len(f.randomness.Calls()) != 0 {
		t.Fatalf("flow must not query randomness")
	}
}

func TestServiceScenarioLateBid(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.newAuction(t, nil)

	_, err := f.bid(t, a.ID, storetest.StartTime+storetest.Duration+1, 1_000_000)

	var npe *auction.NotOpeningPeriodError
	if !errors.As(err, &npe) {
		t.Fatalf("want %T, have %v", npe, err)
	}
	if want, have := (auction.NotOpeningPeriodError{Start: storetest.StartTime, End: storetest.StartTime + storetest.Duration}), *npe; want != have {
		t.Fatalf("want %+v, have %+v", want, have)
	}

	// The last second of the window still counts.
	f.mustBid(t, a.ID, storetest.StartTime+storetest.Duration, 1)
}

func TestServiceSettlementGuards(t *testing.T) {
	t.Parallel()

	t.Run("not ended", func(t *testing.T) {
		f := newFixture(t)
		a := f.newAuction(t, nil)
		f.mustBid(t, a.ID, storetest.StartTime+1, 1)

		f.now = storetest.StartTime + storetest.Duration
		if _, err := f.service.BlowCandle(f.ctx, a.ID); !errors.Is(err, auction.ErrAuctionNotEnded) {
			t.Fatalf("blow candle: want %v, have %v", auction.ErrAuctionNotEnded, err)
		}
		if _, err := f.service.FlowRefund(f.ctx, a.ID); !errors.Is(err, auction.ErrAuctionNotEnded) {
			t.Fatalf("flow refund: want %v, have %v", auction.ErrAuctionNotEnded, err)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		f := newFixture(t)
		a := f.newAuction(t, nil)
		f.mustBid(t, a.ID, storetest.StartTime+1, 1)
		f.mustBid(t, a.ID, storetest.StartTime+2, 2)

		f.randomness.Default = []byte("candle")
		f.now = storetest.StartTime + storetest.Duration + 1

		if _, err := f.service.BlowCandle(f.ctx, a.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := f.service.BlowCandle(f.ctx, a.ID); !errors.Is(err, auction.ErrAlreadySettled) {
			t.Fatalf("second blow: want %v, have %v", auction.ErrAlreadySettled, err)
		}
		if _, err := f.service.FlowRefund(f.ctx, a.ID); !errors.Is(err, auction.ErrAlreadySettled) {
			t.Fatalf("flow after blow: want %v, have %v", auction.ErrAlreadySettled, err)
		}

		ts, err := f.service.Transfers(f.ctx, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if want, have := 4, len(ts); want != have {
			t.Fatalf("transfers: want %d, have %d", want, have)
		}
	})

	t.Run("randomness unavailable", func(t *testing.T) {
		f := newFixture(t)
		a := f.newAuction(t, nil)
		f.mustBid(t, a.ID, storetest.StartTime+1, 1)

		f.now = storetest.StartTime + storetest.Duration + 1
		if _, err := f.service.BlowCandle(f.ctx, a.ID); !errors.Is(err, auction.ErrRandomnessUnavailable) {
			t.Fatalf("want %v, have %v", auction.ErrRandomnessUnavailable, err)
		}

		stored, err := f.service.Auction(f.ctx, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if stored.Settled || stored.Settlement != nil {
			t.Fatalf("failed settlement mutated the auction")
		}

		ts, err := f.service.Transfers(f.ctx, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(ts) != 0 {
			t.Fatalf("failed settlement queued %d transfer(s)", len(ts))
		}

		f.randomness.Values[auction.RoundFor(a.ID)] = []byte("late")
		if _, err := f.service.BlowCandle(f.ctx, a.ID); err != nil {
			t.Fatalf("retry after randomness arrives: %v", err)
		}
	})

	t.Run("provider error", func(t *testing.T) {
		f := newFixture(t)
		a := f.newAuction(t, nil)
		f.mustBid(t, a.ID, storetest.StartTime+1, 1)

		boom := errors.New("boom")
		f.randomness.Err = boom
		f.now = storetest.StartTime + storetest.Duration + 1
		if _, err := f.service.BlowCandle(f.ctx, a.ID); !errors.Is(err, boom) {
			t.Fatalf("want %v, have %v", boom, err)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		setEnabled := func(t *testing.T, f *fixture, enabled bool) {
			t.Helper()
			if _, err := f.service.UpdateConfig(f.ctx, f.owner, auction.ConfigUpdate{Enabled: &enabled}); err != nil {
				t.Fatalf("set enabled=%v: %v", enabled, err)
			}
		}

		checkUnsettled := func(t *testing.T, f *fixture, id uint64) {
			t.Helper()
			stored, err := f.service.Auction(f.ctx, id)
			if err != nil {
				t.Fatal(err)
			}
			if stored.Settled || stored.Settlement != nil {
				t.Fatalf("disabled settlement mutated the auction")
			}
			ts, err := f.service.Transfers(f.ctx, id)
			if err != nil {
				t.Fatal(err)
			}
			if len(ts) != 0 {
				t.Fatalf("disabled settlement queued %d transfer(s)", len(ts))
			}
		}

		for _, tc := range []struct {
			name    string
			options []auction.Option
			bid     bool
			settle  func(f *fixture, id uint64, bidder string) (*auction.Receipt, error)
		}{
			{
				name: "blow candle",
				bid:  true,
				settle: func(f *fixture, id uint64, _ string) (*auction.Receipt, error) {
					return f.service.BlowCandle(f.ctx, id)
				},
			},
			{
				name: "flow refund",
				settle: func(f *fixture, id uint64, _ string) (*auction.Receipt, error) {
					return f.service.FlowRefund(f.ctx, id)
				},
			},
			{
				name:    "winner claim",
				options: []auction.Option{auction.WithSettlementMode(auction.SettlementClaim)},
				bid:     true,
				settle: func(f *fixture, id uint64, bidder string) (*auction.Receipt, error) {
					return f.service.WinnerClaim(f.ctx, id, bidder, "")
				},
			},
		} {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				f := newFixture(t, tc.options...)
				f.randomness.Default = []byte("candle")
				a := f.newAuction(t, nil)

				var bidder string
				if tc.bid {
					bidder = f.mustBid(t, a.ID, storetest.StartTime+1, 1)
				}

				setEnabled(t, f, false)
				f.now = storetest.StartTime + storetest.Duration + 1

				if _, err := tc.settle(f, a.ID, bidder); !errors.Is(err, auction.ErrAuctionDisabled) {
					t.Fatalf("want %v, have %v", auction.ErrAuctionDisabled, err)
				}
				if calls := f.randomness.Calls(); len(calls) != 0 {
					t.Fatalf("randomness fetched while disabled: rounds %v", calls)
				}
				checkUnsettled(t, f, a.ID)

				setEnabled(t, f, true)

				receipt, err := tc.settle(f, a.ID, bidder)
				if err != nil {
					t.Fatalf("after re-enabling: %v", err)
				}
				if !receipt.Auction.Settled {
					t.Fatalf("after re-enabling: auction not settled")
				}
			})
		}
	})

	t.Run("unknown auction", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.service.BlowCandle(f.ctx, 99); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("want %v, have %v", store.ErrNotFound, err)
		}
	})
}

func TestServiceWinnerClaim(t *testing.T) {
	t.Parallel()

	f := newFixture(t, auction.WithSettlementMode(auction.SettlementClaim))
	a := f.newAuction(t, nil)
	alice := f.mustBid(t, a.ID, storetest.StartTime+1, 10)
	bob := f.mustBid(t, a.ID, storetest.StartTime+2, 20)

	f.now = storetest.StartTime + storetest.Duration + 1

	if _, err := f.service.BlowCandle(f.ctx, a.ID); !errors.Is(err, auction.ErrSettlementDisabled) {
		t.Fatalf("blow candle in claim mode: want %v, have %v", auction.ErrSettlementDisabled, err)
	}

	if _, err := f.service.WinnerClaim(f.ctx, a.ID, alice, ""); !errors.Is(err, auction.ErrNotWinner) {
		t.Fatalf("outbid claim: want %v, have %v", auction.ErrNotWinner, err)
	}

	// Anyone may claim on behalf of the winner.
	receipt, err := f.service.WinnerClaim(f.ctx, a.ID, alice, bob)
	if err != nil {
		t.Fatal(err)
	}

	want := []transferSummary{
		{Kind: store.TransferKindAsset, Recipient: bob, TokenID: "1"},
		{Kind: store.TransferKindAsset, Recipient: bob, TokenID: "2"},
	}
	if have := summarize(receipt.Transfers); !cmp.Equal(want, have) {
		t.Fatal(cmp.Diff(want, have))
	}

	if _, err := f.service.WinnerClaim(f.ctx, a.ID, bob, ""); !errors.Is(err, auction.ErrAlreadySettled) {
		t.Fatalf("second claim: want %v, have %v", auction.ErrAlreadySettled, err)
	}
}

func TestServiceWinnerClaimDisabledInCandleMode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.newAuction(t, nil)
	alice := f.mustBid(t, a.ID, storetest.StartTime+1, 10)

	f.now = storetest.StartTime + storetest.Duration + 1
	if _, err := f.service.WinnerClaim(f.ctx, a.ID, alice, ""); !errors.Is(err, auction.ErrSettlementDisabled) {
		t.Fatalf("want %v, have %v", auction.ErrSettlementDisabled, err)
	}
}

func TestServiceFungibleBid(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.now = storetest.StartTime - 1

	a, err := f.service.CreateAuction(f.ctx, f.seller, auction.CreateParams{
		Name:      "token lot",
		StartTime: storetest.StartTime,
		Duration:  storetest.Duration,
		PayToken:  f.token,
	})
	if err != nil {
		t.Fatal(err)
	}

	var (
		sender = storetest.GenBech32Addr(t, storetest.Network)
		bidder = storetest.GenBech32Addr(t, storetest.Network)
	)

	f.now = storetest.StartTime + 3

	if _, err := f.service.BidFungible(f.ctx, auction.FungibleBid{AuctionID: a.ID, Contract: f.nft, Sender: sender, Amount: sdkmath.NewUint(5)}); !errors.Is(err, auction.ErrBadRequest) {
		t.Fatalf("wrong token: want %v, have %v", auction.ErrBadRequest, err)
	}

	if _, err := f.service.BidNative(f.ctx, auction.NativeBid{AuctionID: a.ID, Sender: sender}); !errors.Is(err, auction.ErrBadRequest) {
		t.Fatalf("native bid on token auction: want %v, have %v", auction.ErrBadRequest, err)
	}

	b, err := f.service.BidFungible(f.ctx, auction.FungibleBid{AuctionID: a.ID, Contract: f.token, Sender: sender, Bidder: bidder, Amount: sdkmath.NewUint(5)})
	if err != nil {
		t.Fatal(err)
	}
	if want, have := bidder, b.Bidder; want != have {
		t.Fatalf("bidder override: want %s, have %s", want, have)
	}
	if want, have := uint64(storetest.StartTime+3), b.Time; want != have {
		t.Fatalf("bid time: want %d, have %d", want, have)
	}
}

func TestServiceDeposit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.newAuction(t, nil)

	if _, err := f.service.DepositAsset(f.ctx, auction.Deposit{AuctionID: a.ID, Contract: f.nft, Sender: f.owner, TokenID: "3"}); !errors.Is(err, auction.ErrBadRequest) {
		t.Fatalf("deposit from non-seller: want %v, have %v", auction.ErrBadRequest, err)
	}

	f.now = storetest.StartTime
	if _, err := f.service.DepositAsset(f.ctx, auction.Deposit{AuctionID: a.ID, Contract: f.nft, Sender: f.seller, TokenID: "3"}); !errors.Is(err, auction.ErrBadRequest) {
		t.Fatalf("deposit after opening: want %v, have %v", auction.ErrBadRequest, err)
	}

	stored, err := f.service.Auction(f.ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if want, have := 2, len(stored.EscrowedAssets); want != have {
		t.Fatalf("escrowed assets: want %d, have %d", want, have)
	}
}

func TestServiceConfig(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	if _, err := f.service.Instantiate(f.ctx, f.owner, auction.InstantiateParams{MaxDuration: 1}); !errors.Is(err, auction.ErrAlreadyInstantiated) {
		t.Fatalf("second instantiate: want %v, have %v", auction.ErrAlreadyInstantiated, err)
	}

	disabled := false
	if _, err := f.service.UpdateConfig(f.ctx, f.seller, auction.ConfigUpdate{Enabled: &disabled}); !errors.Is(err, auction.ErrUnauthorized) {
		t.Fatalf("update by non-owner: want %v, have %v", auction.ErrUnauthorized, err)
	}

	minDuration := uint64(5000)
	if _, err := f.service.UpdateConfig(f.ctx, f.owner, auction.ConfigUpdate{MinDuration: &minDuration}); !errors.Is(err, auction.ErrBadRequest) {
		t.Fatalf("min above max: want %v, have %v", auction.ErrBadRequest, err)
	}

	a := f.newAuction(t, nil)

	cfg, err := f.service.UpdateConfig(f.ctx, f.owner, auction.ConfigUpdate{Enabled: &disabled})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Enabled {
		t.Fatalf("config still enabled")
	}
	if want, have := uint64(1), cfg.AuctionCounter; want != have {
		t.Fatalf("auction counter: want %d, have %d", want, have)
	}

	if _, err := f.bid(t, a.ID, storetest.StartTime+1, 1); !errors.Is(err, auction.ErrAuctionDisabled) {
		t.Fatalf("bid while disabled: want %v, have %v", auction.ErrAuctionDisabled, err)
	}

	if _, err := f.service.CreateAuction(f.ctx, f.seller, auction.CreateParams{StartTime: storetest.StartTime + 500, Duration: 100, Denom: storetest.Denom}); !errors.Is(err, auction.ErrAuctionDisabled) {
		t.Fatalf("create while disabled: want %v, have %v", auction.ErrAuctionDisabled, err)
	}

	have, err := f.service.Config(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	opts := cmp.Options{
		cmpopts.IgnoreFields(store.Config{}, "CreatedAt", "UpdatedAt"),
		cmpopts.EquateEmpty(),
	}
	if want := cfg; !cmp.Equal(want, have, opts) {
		t.Fatal(cmp.Diff(want, have, opts))
	}
}

func TestServiceNotInstantiated(t *testing.T) {
	t.Parallel()

	var (
		ctx     = context.Background()
		service = auction.NewCoreService(memstore.NewStore(), &randomness.TestProvider{}, log.NewNopLogger())
		seller  = storetest.GenBech32Addr(t, storetest.Network)
	)

	if _, err := service.Config(ctx); !errors.Is(err, auction.ErrNotInstantiated) {
		t.Fatalf("config: want %v, have %v", auction.ErrNotInstantiated, err)
	}

	if _, err := service.CreateAuction(ctx, seller, auction.CreateParams{Duration: 10, Denom: "x"}); !errors.Is(err, auction.ErrNotInstantiated) {
		t.Fatalf("create: want %v, have %v", auction.ErrNotInstantiated, err)
	}
}

func TestServiceAddressValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	if _, err := f.service.CreateAuction(f.ctx, "not-an-address", auction.CreateParams{StartTime: storetest.StartTime, Duration: 100, Denom: storetest.Denom}); !errors.Is(err, auction.ErrBadRequest) {
		t.Fatalf("bad seller: want %v, have %v", auction.ErrBadRequest, err)
	}

	other := storetest.GenBech32Addr(t, "other")
	if _, err := f.service.CreateAuction(f.ctx, other, auction.CreateParams{StartTime: storetest.StartTime, Duration: 100, Denom: storetest.Denom}); !errors.Is(err, auction.ErrBadRequest) {
		t.Fatalf("wrong prefix: want %v, have %v", auction.ErrBadRequest, err)
	}
}

func TestServiceListAuctions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	// Auctions 1-3 end early, 4-6 are open, 7-8 haven't started.
	var (
		base     = uint64(storetest.StartTime)
		windows  = []uint64{base, base, base, base + 200, base + 200, base + 200, base + 900, base + 900}
		now      = base + 250
		statuses = map[uint64]auction.Status{}
	)

	f.now = base - 1
	for _, start := range windows {
		a, err := f.service.CreateAuction(f.ctx, f.seller, auction.CreateParams{StartTime: start, Duration: 100, Denom: storetest.Denom})
		if err != nil {
			t.Fatal(err)
		}
		statuses[a.ID] = auction.StatusAt(start, 100, now)
	}
	f.now = now

	ids := func(as []*auction.Auction) []uint64 {
		out := []uint64{}
		for _, a := range as {
			out = append(out, a.ID)
		}
		return out
	}

	status := func(s auction.Status) *auction.Status { return &s }

	for _, tc := range []struct {
		name string
		p    auction.ListParams
		want []uint64
	}{
		{"all", auction.ListParams{}, []uint64{8, 7, 6, 5, 4, 3, 2, 1}},
		{"first page", auction.ListParams{Limit: 3}, []uint64{8, 7, 6}},
		{"second page", auction.ListParams{Page: 1, Limit: 3}, []uint64{5, 4, 3}},
		{"last page", auction.ListParams{Page: 2, Limit: 3}, []uint64{2, 1}},
		{"past the end", auction.ListParams{Page: 5, Limit: 3}, []uint64{}},
		{"ended", auction.ListParams{Status: status(auction.StatusEnded)}, []uint64{3, 2, 1}},
		{"open, second page", auction.ListParams{Status: status(auction.StatusOpeningPeriod), Page: 1, Limit: 2}, []uint64{4}},
		{"not started", auction.ListParams{Status: status(auction.StatusNotStarted), Limit: 1}, []uint64{8}},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			as, err := f.service.ListAuctions(f.ctx, tc.p)
			if err != nil {
				t.Fatal(err)
			}
			if want, have := tc.want, ids(as); !cmp.Equal(want, have) {
				t.Fatal(cmp.Diff(want, have))
			}
			for _, a := range as {
				if tc.p.Status != nil && statuses[a.ID] != *tc.p.Status {
					t.Fatalf("auction %d has status %s", a.ID, statuses[a.ID])
				}
			}
		})
	}

	a, err := f.service.Auction(f.ctx, 404)
	if err != nil || a != nil {
		t.Fatalf("absent auction: want nil, nil, have %v, %v", a, err)
	}
}
