package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"candle/store"

	"github.com/gofrs/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Store keeps everything in memory. Transactions run one at a time against
// a private copy of the state, which replaces the shared state only if the
// transaction func returns without error.
type Store struct {
	txmu sync.Mutex // serializes transactions and writes
	mu   sync.Mutex // guards the fields below

	config    *store.Config
	auctions  map[uint64]*store.Auction
	transfers map[uint64][]*store.Transfer
}

var _ store.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		auctions:  map[uint64]*store.Auction{},
		transfers: map[uint64][]*store.Transfer{},
	}
}

func (s *Store) Transact(ctx context.Context, tx func(store.Store) error) error {
	s.txmu.Lock()
	defer s.txmu.Unlock()

	// Stored values are never mutated in place, so shallow copies of the maps
	// are enough to isolate the transaction.
	s.mu.Lock()
	child := &Store{
		config:    s.config,
		auctions:  maps.Clone(s.auctions),
		transfers: maps.Clone(s.transfers),
	}
	s.mu.Unlock()

	if err := tx(child); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.config = child.config
	s.auctions = child.auctions
	s.transfers = child.transfers

	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

//
//
//

func (s *Store) SelectConfig(ctx context.Context) (*store.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		return nil, store.ErrNotFound
	}

	return cloneConfig(s.config), nil
}

func (s *Store) UpsertConfig(ctx context.Context, c *store.Config) error {
	s.txmu.Lock()
	defer s.txmu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if s.config == nil {
		c.CreatedAt = now
	} else {
		c.CreatedAt = s.config.CreatedAt
	}
	c.UpdatedAt = now

	s.config = cloneConfig(c)

	return nil
}

//
//
//

func (s *Store) InsertAuction(ctx context.Context, a *store.Auction) error {
	s.txmu.Lock()
	defer s.txmu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[a.ID]; ok {
		return fmt.Errorf("auction %d: %w", a.ID, store.ErrAlreadyExists)
	}

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	s.auctions[a.ID] = cloneAuction(a)

	return nil
}

func (s *Store) UpdateAuction(ctx context.Context, a *store.Auction) error {
	s.txmu.Lock()
	defer s.txmu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.auctions[a.ID]
	if !ok {
		return store.ErrNotFound
	}

	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now().UTC()

	s.auctions[a.ID] = cloneAuction(a)

	return nil
}

func (s *Store) SelectAuction(ctx context.Context, id uint64) (*store.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	return cloneAuction(a), nil
}

func (s *Store) ListAuctions(ctx context.Context, beforeID uint64, limit int) ([]*store.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := maps.Keys(s.auctions)
	slices.Sort(ids)

	var as []*store.Auction
	for i := len(ids) - 1; i >= 0 && len(as) < limit; i-- {
		if beforeID != 0 && ids[i] >= beforeID {
			continue
		}
		as = append(as, cloneAuction(s.auctions[ids[i]]))
	}

	return as, nil
}

//
//
//

func (s *Store) InsertTransfers(ctx context.Context, ts ...*store.Transfer) error {
	s.txmu.Lock()
	defer s.txmu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, t := range ts {
		if t.ID.IsNil() {
			var err error
			if t.ID, err = uuid.NewV4(); err != nil {
				return fmt.Errorf("generate transfer ID: %w", err)
			}
		}

		for _, o := range s.transfers[t.AuctionID] {
			if o.Seq == t.Seq {
				return fmt.Errorf("transfer %d/%d: %w", t.AuctionID, t.Seq, store.ErrAlreadyExists)
			}
		}

		t.CreatedAt = now

		tt := *t
		s.transfers[t.AuctionID] = append(slices.Clip(s.transfers[t.AuctionID]), &tt)
	}

	return nil
}

func (s *Store) ListTransfers(ctx context.Context, auctionID uint64) ([]*store.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := make([]*store.Transfer, 0, len(s.transfers[auctionID]))
	for _, t := range s.transfers[auctionID] {
		tt := *t
		ts = append(ts, &tt)
	}

	slices.SortStableFunc(ts, func(a, b *store.Transfer) int {
		return a.Seq - b.Seq
	})

	return ts, nil
}

//
//
//

func cloneConfig(c *store.Config) *store.Config {
	cc := *c
	cc.AllowedDepositors = slices.Clone(c.AllowedDepositors)
	return &cc
}

func cloneAuction(a *store.Auction) *store.Auction {
	aa := *a
	aa.EscrowedAssets = slices.Clone(a.EscrowedAssets)
	aa.Bids = slices.Clone(a.Bids)
	if a.MinPrice != nil {
		p := *a.MinPrice
		aa.MinPrice = &p
	}
	if a.ProvisionalWinner != nil {
		w := *a.ProvisionalWinner
		aa.ProvisionalWinner = &w
	}
	if a.Settlement != nil {
		s := *a.Settlement
		if s.Winner != nil {
			w := *s.Winner
			s.Winner = &w
		}
		aa.Settlement = &s
	}
	return &aa
}
