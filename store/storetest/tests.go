package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"candle/store"

	"cosmossdk.io/math"
	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestStore(t *testing.T, makeStore func(*testing.T) store.Store) {
	ctx := context.Background()

	t.Run("SelectConfig", func(t *testing.T) {
		s := makeStore(t)

		if _, err := s.SelectConfig(ctx); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("empty store: want %v, have %v", store.ErrNotFound, err)
		}

		config := NewConfig(t, s)

		have, err := s.SelectConfig(ctx)
		if err != nil {
			t.Fatal(err)
		}

		want := config
		if diff := cmp.Diff(have, want); diff != "" {
			t.Fatalf("mismatch: %s", diff)
		}
	})

	t.Run("UpsertConfig", func(t *testing.T) {
		s := makeStore(t)
		config := NewConfig(t, s)
		createdAt := config.CreatedAt

		config.AuctionCounter = 3
		config.Enabled = false
		config.AllowedDepositors = append(config.AllowedDepositors, GenBech32Addr(t, Network))
		if err := s.UpsertConfig(ctx, config); err != nil {
			t.Fatal(err)
		}

		have, err := s.SelectConfig(ctx)
		if err != nil {
			t.Fatal(err)
		}

		if !have.CreatedAt.Equal(createdAt) {
			t.Errorf("created at: want %s, have %s", createdAt, have.CreatedAt)
		}

		ignore := cmpopts.IgnoreFields(store.Config{}, "UpdatedAt")
		want := config
		if diff := cmp.Diff(have, want, ignore); diff != "" {
			t.Fatalf("mismatch: %s", diff)
		}
	})

	t.Run("SelectAuction", func(t *testing.T) {
		s := makeStore(t)
		auction := NewAuction(t, s, 1)

		have, err := s.SelectAuction(ctx, auction.ID)
		if err != nil {
			t.Fatal(err)
		}

		want := auction
		if diff := cmp.Diff(have, want, CmpOptions); diff != "" {
			t.Fatalf("mismatch: %s", diff)
		}

		if _, err := s.SelectAuction(ctx, auction.ID+1); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("unknown auction: want %v, have %v", store.ErrNotFound, err)
		}
	})

	t.Run("InsertAuctionDuplicate", func(t *testing.T) {
		s := makeStore(t)
		auction := NewAuction(t, s, 1)

		dup := *auction
		if err := s.InsertAuction(ctx, &dup); !errors.Is(err, store.ErrAlreadyExists) {
			t.Fatalf("duplicate insert: want %v, have %v", store.ErrAlreadyExists, err)
		}
	})

	t.Run("UpdateAuction", func(t *testing.T) {
		s := makeStore(t)
		auction := NewAuction(t, s, 1)

		var (
			alice    = GenBech32Addr(t, Network)
			bob      = GenBech32Addr(t, Network)
			minPrice = math.NewUint(50)
			bid1     = NewBid(t, alice, StartTime+5, 100)
			bid2     = NewBid(t, bob, StartTime+50, 200)
		)

		auction.MinPrice = &minPrice
		auction.EscrowedAssets = []store.EscrowAsset{{Contract: GenBech32Addr(t, Network), TokenID: "42"}}
		auction.Bids = []store.Bid{bid1, bid2}
		auction.BidCount = 2
		auction.ProvisionalWinner = &bid2
		auction.Settled = true
		auction.Settlement = &store.Settlement{
			Outcome:   store.OutcomeCandle,
			Round:     11,
			Cutoff:    StartTime + 20,
			Winner:    &bid1,
			SettledAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}

		if err := s.UpdateAuction(ctx, auction); err != nil {
			t.Fatal(err)
		}

		have, err := s.SelectAuction(ctx, auction.ID)
		if err != nil {
			t.Fatal(err)
		}

		want := auction
		if diff := cmp.Diff(have, want, CmpOptions); diff != "" {
			t.Fatalf("mismatch: %s", diff)
		}

		if err := s.UpdateAuction(ctx, &store.Auction{ID: auction.ID + 1}); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("update unknown auction: want %v, have %v", store.ErrNotFound, err)
		}
	})

	t.Run("ListAuctions", func(t *testing.T) {
		s := makeStore(t)

		have, err := s.ListAuctions(ctx, 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(have) != 0 {
			t.Fatalf("empty store: want no auctions, have %d", len(have))
		}

		var all []*store.Auction
		for id := uint64(1); id <= 5; id++ {
			all = append(all, NewAuction(t, s, id))
		}

		for _, testcase := range []struct {
			before uint64
			limit  int
			want   []uint64
		}{
			{before: 0, limit: 10, want: []uint64{5, 4, 3, 2, 1}},
			{before: 0, limit: 2, want: []uint64{5, 4}},
			{before: 4, limit: 2, want: []uint64{3, 2}},
			{before: 2, limit: 10, want: []uint64{1}},
			{before: 1, limit: 10, want: nil},
		} {
			as, err := s.ListAuctions(ctx, testcase.before, testcase.limit)
			if err != nil {
				t.Fatal(err)
			}

			var ids []uint64
			for _, a := range as {
				ids = append(ids, a.ID)
			}

			if diff := cmp.Diff(ids, testcase.want); diff != "" {
				t.Errorf("before=%d limit=%d: mismatch: %s", testcase.before, testcase.limit, diff)
			}
		}

		as, err := s.ListAuctions(ctx, 0, 1)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(as, all[4:], CmpOptions); diff != "" {
			t.Fatalf("mismatch: %s", diff)
		}
	})

	t.Run("ListTransfers", func(t *testing.T) {
		s := makeStore(t)
		auction := NewAuction(t, s, 1)
		other := NewAuction(t, s, 2)
		winner := GenBech32Addr(t, Network)
		transfers := NewTransfers(t, s, auction, winner)

		have, err := s.ListTransfers(ctx, auction.ID)
		if err != nil {
			t.Fatal(err)
		}

		want := transfers
		if diff := cmp.Diff(have, want, CmpOptions); diff != "" {
			t.Fatalf("mismatch: %s", diff)
		}

		none, err := s.ListTransfers(ctx, other.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(none) != 0 {
			t.Fatalf("other auction: want no transfers, have %d", len(none))
		}

		dup := *transfers[0]
		dup.ID = uuid.Nil
		if err := s.InsertTransfers(ctx, &dup); !errors.Is(err, store.ErrAlreadyExists) {
			t.Fatalf("duplicate seq: want %v, have %v", store.ErrAlreadyExists, err)
		}
	})

	t.Run("TransactRollback", func(t *testing.T) {
		s := makeStore(t)
		config := NewConfig(t, s)
		errBoom := errors.New("boom")

		err := s.Transact(ctx, func(tx store.Store) error {
			c, err := tx.SelectConfig(ctx)
			if err != nil {
				return err
			}

			c.AuctionCounter++
			if err := tx.UpsertConfig(ctx, c); err != nil {
				return err
			}

			if err := tx.InsertAuction(ctx, &store.Auction{
				ID:       c.AuctionCounter,
				Seller:   config.Owner,
				Duration: Duration,
				Payment:  store.PaymentAsset{Kind: store.PaymentKindNative, Ref: Denom},
			}); err != nil {
				return err
			}

			return errBoom
		})
		if !errors.Is(err, errBoom) {
			t.Fatalf("Transact: want %v, have %v", errBoom, err)
		}

		have, err := s.SelectConfig(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if want, have := uint64(0), have.AuctionCounter; want != have {
			t.Errorf("auction counter: want %d, have %d", want, have)
		}

		if _, err := s.SelectAuction(ctx, 1); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("rolled back auction: want %v, have %v", store.ErrNotFound, err)
		}
	})

	t.Run("TransactCommit", func(t *testing.T) {
		s := makeStore(t)
		NewConfig(t, s)

		if err := s.Transact(ctx, func(tx store.Store) error {
			c, err := tx.SelectConfig(ctx)
			if err != nil {
				return err
			}
			c.AuctionCounter++
			return tx.UpsertConfig(ctx, c)
		}); err != nil {
			t.Fatal(err)
		}

		have, err := s.SelectConfig(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if want, have := uint64(1), have.AuctionCounter; want != have {
			t.Errorf("auction counter: want %d, have %d", want, have)
		}
	})
}
