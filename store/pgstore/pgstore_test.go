package pgstore_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"candle/store"
	"candle/store/pgstore"
	"candle/store/storetest"
)

func TestStore(t *testing.T) {
	t.Parallel()

	if os.Getenv("PGCONNSTRING") == "" {
		t.Skipf("set PGCONNSTRING to run this test")
	}

	storetest.TestStore(t, pgstore.NewTestStore)
}

// Two transactions race to allocate the next auction ID from the same
// config row. Exactly one of them may win.
func TestPGStoreTransactionIsolation(t *testing.T) {
	t.Parallel()

	if os.Getenv("PGCONNSTRING") == "" {
		t.Skipf("set PGCONNSTRING to run this test")
	}

	var (
		ctx    = context.Background()
		store1 = pgstore.NewTestStore(t)
		config = storetest.NewConfig(t, store1)
		seller = config.Owner
	)

	runtx := func(st store.Store, stepch <-chan int) error {
		t.Logf("step %d", <-stepch)

		return st.Transact(ctx, func(tx store.Store) error {
			c, err := tx.SelectConfig(ctx)
			if err != nil {
				return fmt.Errorf("SelectConfig: %w", err)
			}

			t.Logf("step %d", <-stepch)

			if c.AuctionCounter != 0 {
				return fmt.Errorf("auction counter already advanced to %d", c.AuctionCounter)
			}
			c.AuctionCounter++

			t.Logf("step %d", <-stepch)

			if err := tx.UpsertConfig(ctx, c); err != nil {
				return fmt.Errorf("upsert config: %w", err)
			}

			return tx.InsertAuction(ctx, &store.Auction{
				ID:       c.AuctionCounter,
				Seller:   seller,
				Duration: storetest.Duration,
				Payment:  store.PaymentAsset{Kind: store.PaymentKindNative, Ref: storetest.Denom},
			})
		})
	}

	var (
		stepc1 = make(chan int, 100)
		errc1  = make(chan error, 1)
	)
	go func() { errc1 <- runtx(store1, stepc1) }()

	var (
		stepc2 = make(chan int, 100)
		errc2  = make(chan error, 1)
	)
	go func() { errc2 <- runtx(store1, stepc2) }()

	stepc1 <- 1     // allow tx1 to enter Transact
	stepc2 <- 2     // allow tx2 to enter Transact
	stepc1 <- 3     // allow tx1 to bump the counter
	stepc1 <- 4     // allow tx1 to write
	err1 := <-errc1 // tx1 should successfully Transact
	stepc2 <- 5     // allow tx2 to bump the counter
	stepc2 <- 6     // allow tx2 to write, which must fail
	stepc2 <- 7     // a retry re-reads the advanced counter and gives up
	stepc2 <- 8
	stepc2 <- 9
	err2 := <-errc2

	if err1 != nil {
		t.Errorf("tx1 should have successfully transacted, but had error: %v", err1)
	}

	if err2 == nil {
		t.Errorf("tx2 should have failed to transact, but succeeded")
	}
}

func TestPGStoreUpsertConfigError(t *testing.T) {
	t.Parallel()

	if os.Getenv("PGCONNSTRING") == "" {
		t.Skipf("set PGCONNSTRING to run this test")
	}

	var (
		s           = pgstore.NewTestStore(t)
		config      = storetest.NewConfig(t, s)
		ctx, cancel = context.WithCancel(context.Background())
	)
	cancel()

	err := s.UpsertConfig(ctx, config)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want %v, have %v", context.Canceled, err)
	}
	if !strings.HasPrefix(err.Error(), "config: ") {
		t.Fatalf("error %q lacks config context", err)
	}
}
