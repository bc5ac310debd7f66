package store

import (
	"context"
)

type Store interface {
	Transact(context.Context, func(Store) error) error

	Ping(ctx context.Context) error

	SelectConfig(ctx context.Context) (*Config, error)
	UpsertConfig(ctx context.Context, c *Config) error

	InsertAuction(ctx context.Context, a *Auction) error
	UpdateAuction(ctx context.Context, a *Auction) error
	SelectAuction(ctx context.Context, id uint64) (*Auction, error)

	// ListAuctions returns up to limit auctions with IDs strictly less than
	// beforeID, in descending ID order. A beforeID of 0 starts from the most
	// recent auction.
	ListAuctions(ctx context.Context, beforeID uint64, limit int) ([]*Auction, error)

	InsertTransfers(ctx context.Context, ts ...*Transfer) error
	ListTransfers(ctx context.Context, auctionID uint64) ([]*Transfer, error)
}
