package storetest

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"candle/cryptoutil"
	"candle/store"

	"cosmossdk.io/math"
	sdk_types_bech32 "github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/google/go-cmp/cmp"
	tm_crypto_secp256k1 "github.com/tendermint/tendermint/crypto/secp256k1"
)

const (
	Network   = "candle"
	Denom     = "ucandle"
	StartTime = 1_700_000_000
	Duration  = 100
)

// CmpOptions teaches go-cmp to compare amounts by value.
var CmpOptions = cmp.Options{
	cmp.Comparer(func(a, b math.Uint) bool { return a.String() == b.String() }),
}

func NewConfig(t *testing.T, s store.Store) *store.Config {
	t.Helper()

	c := &store.Config{
		MinDuration:       10,
		MaxDuration:       1000,
		Enabled:           true,
		FeeRate:           0,
		DefaultDenom:      Denom,
		AllowedDepositors: []string{GenBech32Addr(t, Network)},
		Owner:             GenBech32Addr(t, Network),
		RandomnessSource:  "https://randomness.example",
	}

	if err := s.UpsertConfig(context.Background(), c); err != nil {
		t.Fatal(err)
	}

	return c
}

func NewAuction(t *testing.T, s store.Store, id uint64) *store.Auction {
	t.Helper()

	a := &store.Auction{
		ID:        id,
		Name:      getFunName(t),
		Seller:    GenBech32Addr(t, Network),
		StartTime: StartTime,
		Duration:  Duration,
		Payment:   store.PaymentAsset{Kind: store.PaymentKindNative, Ref: Denom},
	}

	if err := s.InsertAuction(context.Background(), a); err != nil {
		t.Fatal(err)
	}

	return a
}

func NewBid(t *testing.T, bidder string, at, amount uint64) store.Bid {
	t.Helper()

	return store.Bid{
		Bidder: bidder,
		Time:   at,
		Amount: math.NewUint(amount),
	}
}

func NewTransfers(t *testing.T, s store.Store, a *store.Auction, winner string) []*store.Transfer {
	t.Helper()

	amount := math.NewUint(uint64(rand.Intn(1000) + 1))
	ts := []*store.Transfer{
		{
			AuctionID: a.ID,
			Seq:       0,
			Kind:      store.TransferKindPayment,
			Recipient: a.Seller,
			Funds:     &store.Funds{Payment: a.Payment, Amount: amount},
		},
		{
			AuctionID: a.ID,
			Seq:       1,
			Kind:      store.TransferKindAsset,
			Recipient: winner,
			Asset:     &store.EscrowAsset{Contract: GenBech32Addr(t, Network), TokenID: "1"},
		},
	}

	if err := s.InsertTransfers(context.Background(), ts...); err != nil {
		t.Fatal(err)
	}

	return ts
}

func GetBech32Addr(t *testing.T, prefix string, addr []byte) string {
	bech32Addr, err := sdk_types_bech32.ConvertAndEncode(prefix, addr)
	if err != nil {
		t.Fatal(err)
	}
	return bech32Addr
}

func GenBech32Addr(t *testing.T, prefix string) string {
	return GetBech32Addr(t, prefix, tm_crypto_secp256k1.GenPrivKey().PubKey().Address())
}

func getFunName(t *testing.T) string {
	t.Helper()

	return fmt.Sprintf("lot-%x", cryptoutil.RandomBytes(8))
}
