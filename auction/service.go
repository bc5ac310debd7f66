package auction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"candle/metrics"
	"candle/randomness"
	"candle/store"
	"candle/trc"

	sdkmath "cosmossdk.io/math"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/exp/slices"
)

type Service interface {
	Now() uint64
	Ping(ctx context.Context) error

	Instantiate(ctx context.Context, owner string, p InstantiateParams) (*Config, error)
	UpdateConfig(ctx context.Context, sender string, u ConfigUpdate) (*Config, error)
	Config(ctx context.Context) (*Config, error)

	CreateAuction(ctx context.Context, seller string, p CreateParams) (*Auction, error)
	DepositAsset(ctx context.Context, d Deposit) (*Auction, error)
	BidNative(ctx context.Context, b NativeBid) (*Bid, error)
	BidFungible(ctx context.Context, b FungibleBid) (*Bid, error)

	BlowCandle(ctx context.Context, id uint64) (*Receipt, error)
	FlowRefund(ctx context.Context, id uint64) (*Receipt, error)
	WinnerClaim(ctx context.Context, id uint64, sender, winner string) (*Receipt, error)

	Auction(ctx context.Context, id uint64) (*Auction, error)
	ListAuctions(ctx context.Context, p ListParams) ([]*Auction, error)
	Transfers(ctx context.Context, id uint64) ([]*Transfer, error)
}

type InstantiateParams struct {
	MinDuration       uint64
	MaxDuration       uint64
	Enabled           bool
	FeeRate           uint64
	DefaultDenom      string
	AllowedDepositors []string
	RandomnessSource  string
}

// ConfigUpdate changes the non-nil fields only.
type ConfigUpdate struct {
	MinDuration       *uint64
	MaxDuration       *uint64
	Enabled           *bool
	FeeRate           *uint64
	DefaultDenom      *string
	AllowedDepositors *[]string
	Owner             *string
}

// CreateParams describes a new auction. Exactly one of Denom and PayToken
// must be set.
type CreateParams struct {
	Name      string
	StartTime uint64
	Duration  uint64
	Denom     string
	PayToken  string
	MinPrice  *sdkmath.Uint
}

// Deposit is an escrow asset sent to an auction by an asset contract on
// behalf of its original owner.
type Deposit struct {
	AuctionID uint64
	Contract  string
	Sender    string
	TokenID   string
}

type NativeBid struct {
	AuctionID uint64
	Sender    string
	Bidder    string // optional, defaults to Sender
	Funds     []Coin
}

// FungibleBid is a token transfer forwarded by the token contract.
type FungibleBid struct {
	AuctionID uint64
	Contract  string
	Sender    string
	Bidder    string // optional, defaults to Sender
	Amount    sdkmath.Uint
}

type ListParams struct {
	Status *Status
	Page   uint32
	Limit  uint32
}

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// Receipt is the result of a settlement: the terminal auction and the
// transfers queued for it.
type Receipt struct {
	Auction   *Auction
	Transfers []*Transfer
}

type SettlementMode string

const (
	SettlementCandle SettlementMode = "candle"
	SettlementClaim  SettlementMode = "claim"
)

func ParseSettlementMode(s string) (SettlementMode, error) {
	switch strings.ToLower(s) {
	case "", string(SettlementCandle):
		return SettlementCandle, nil
	case string(SettlementClaim):
		return SettlementClaim, nil
	default:
		return "", fmt.Errorf("unknown settlement mode %q", s)
	}
}

//
//
//

type MockService struct {
	NowFunc           func() uint64
	PingFunc          func(ctx context.Context) error
	InstantiateFunc   func(ctx context.Context, owner string, p InstantiateParams) (*Config, error)
	UpdateConfigFunc  func(ctx context.Context, sender string, u ConfigUpdate) (*Config, error)
	ConfigFunc        func(ctx context.Context) (*Config, error)
	CreateAuctionFunc func(ctx context.Context, seller string, p CreateParams) (*Auction, error)
	DepositAssetFunc  func(ctx context.Context, d Deposit) (*Auction, error)
	BidNativeFunc     func(ctx context.Context, b NativeBid) (*Bid, error)
	BidFungibleFunc   func(ctx context.Context, b FungibleBid) (*Bid, error)
	BlowCandleFunc    func(ctx context.Context, id uint64) (*Receipt, error)
	FlowRefundFunc    func(ctx context.Context, id uint64) (*Receipt, error)
	WinnerClaimFunc   func(ctx context.Context, id uint64, sender, winner string) (*Receipt, error)
	AuctionFunc       func(ctx context.Context, id uint64) (*Auction, error)
	ListAuctionsFunc  func(ctx context.Context, p ListParams) ([]*Auction, error)
	TransfersFunc     func(ctx context.Context, id uint64) ([]*Transfer, error)
}

var _ Service = (*MockService)(nil)

func NewMockServiceErr(now uint64, err error) *MockService {
	return &MockService{
		NowFunc: func() uint64 {
			return now
		},
		PingFunc: func(ctx context.Context) error {
			return err
		},
		InstantiateFunc: func(ctx context.Context, owner string, p InstantiateParams) (*Config, error) {
			return nil, err
		},
		UpdateConfigFunc: func(ctx context.Context, sender string, u ConfigUpdate) (*Config, error) {
			return nil, err
		},
		ConfigFunc: func(ctx context.Context) (*Config, error) {
			return nil, err
		},
		CreateAuctionFunc: func(ctx context.Context, seller string, p CreateParams) (*Auction, error) {
			return nil, err
		},
		DepositAssetFunc: func(ctx context.Context, d Deposit) (*Auction, error) {
			return nil, err
		},
		BidNativeFunc: func(ctx context.Context, b NativeBid) (*Bid, error) {
			return nil, err
		},
		BidFungibleFunc: func(ctx context.Context, b FungibleBid) (*Bid, error) {
			return nil, err
		},
		BlowCandleFunc: func(ctx context.Context, id uint64) (*Receipt, error) {
			return nil, err
		},
		FlowRefundFunc: func(ctx context.Context, id uint64) (*Receipt, error) {
			return nil, err
		},
		WinnerClaimFunc: func(ctx context.Context, id uint64, sender, winner string) (*Receipt, error) {
			return nil, err
		},
		AuctionFunc: func(ctx context.Context, id uint64) (*Auction, error) {
			return nil, err
		},
		ListAuctionsFunc: func(ctx context.Context, p ListParams) ([]*Auction, error) {
			return nil, err
		},
		TransfersFunc: func(ctx context.Context, id uint64) ([]*Transfer, error) {
			return nil, err
		},
	}
}

func (m *MockService) Now() uint64 {
	return m.NowFunc()
}

func (m *MockService) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}

func (m *MockService) Instantiate(ctx context.Context, owner string, p InstantiateParams) (*Config, error) {
	return m.InstantiateFunc(ctx, owner, p)
}

func (m *MockService) UpdateConfig(ctx context.Context, sender string, u ConfigUpdate) (*Config, error) {
	return m.UpdateConfigFunc(ctx, sender, u)
}

func (m *MockService) Config(ctx context.Context) (*Config, error) {
	return m.ConfigFunc(ctx)
}

func (m *MockService) CreateAuction(ctx context.Context, seller string, p CreateParams) (*Auction, error) {
	return m.CreateAuctionFunc(ctx, seller, p)
}

func (m *MockService) DepositAsset(ctx context.Context, d Deposit) (*Auction, error) {
	return m.DepositAssetFunc(ctx, d)
}

func (m *MockService) BidNative(ctx context.Context, b NativeBid) (*Bid, error) {
	return m.BidNativeFunc(ctx, b)
}

func (m *MockService) BidFungible(ctx context.Context, b FungibleBid) (*Bid, error) {
	return m.BidFungibleFunc(ctx, b)
}

func (m *MockService) BlowCandle(ctx context.Context, id uint64) (*Receipt, error) {
	return m.BlowCandleFunc(ctx, id)
}

func (m *MockService) FlowRefund(ctx context.Context, id uint64) (*Receipt, error) {
	return m.FlowRefundFunc(ctx, id)
}

func (m *MockService) WinnerClaim(ctx context.Context, id uint64, sender, winner string) (*Receipt, error) {
	return m.WinnerClaimFunc(ctx, id, sender, winner)
}

func (m *MockService) Auction(ctx context.Context, id uint64) (*Auction, error) {
	return m.AuctionFunc(ctx, id)
}

func (m *MockService) ListAuctions(ctx context.Context, p ListParams) ([]*Auction, error) {
	return m.ListAuctionsFunc(ctx, p)
}

func (m *MockService) Transfers(ctx context.Context, id uint64) ([]*Transfer, error) {
	return m.TransfersFunc(ctx, id)
}

//
//
//

type CoreService struct {
	store      store.Store
	randomness randomness.Provider
	logger     log.Logger
	now        func() uint64
	mode       SettlementMode
	addrs      AddressValidator
}

var _ Service = (*CoreService)(nil)

type Option func(*CoreService)

// WithClock replaces the wall clock, in unix seconds.
func WithClock(now func() uint64) Option {
	return func(s *CoreService) { s.now = now }
}

func WithSettlementMode(mode SettlementMode) Option {
	return func(s *CoreService) { s.mode = mode }
}

func WithAddressValidator(v AddressValidator) Option {
	return func(s *CoreService) { s.addrs = v }
}

func NewCoreService(s store.Store, r randomness.Provider, logger log.Logger, options ...Option) *CoreService {
	cs := &CoreService{
		store:      s,
		randomness: r,
		logger:     logger,
		now:        func() uint64 { return uint64(time.Now().Unix()) },
		mode:       SettlementCandle,
		addrs:      AnyAddress{},
	}
	for _, option := range options {
		option(cs)
	}
	return cs
}

func (s *CoreService) Now() uint64 {
	return s.now()
}

func (s *CoreService) Ping(ctx context.Context) error {
	ctx = trc.PrefixContextf(ctx, "[Ping]")

	if err := s.store.Ping(ctx); err != nil {
		trc.Errorf(ctx, "ping store: %v", err)
		return fmt.Errorf("ping store: %w", err)
	}

	return nil
}

func (s *CoreService) Instantiate(ctx context.Context, owner string, p InstantiateParams) (_ *Config, err error) {
	ctx = trc.PrefixContextf(ctx, "[Instantiate]")
	defer s.observe(ctx, "instantiate", &err)

	if err := s.addrs.ValidateAddress(owner); err != nil {
		return nil, badRequestf("owner: %v", err)
	}

	if p.MinDuration > p.MaxDuration {
		return nil, badRequestf("min duration %d exceeds max duration %d", p.MinDuration, p.MaxDuration)
	}

	for _, d := range p.AllowedDepositors {
		if err := s.addrs.ValidateAddress(d); err != nil {
			return nil, badRequestf("allowed depositor: %v", err)
		}
	}

	cfg := &Config{
		MinDuration:       p.MinDuration,
		MaxDuration:       p.MaxDuration,
		Enabled:           p.Enabled,
		FeeRate:           p.FeeRate,
		DefaultDenom:      p.DefaultDenom,
		AllowedDepositors: slices.Compact(sortedCopy(p.AllowedDepositors)),
		Owner:             owner,
		RandomnessSource:  p.RandomnessSource,
	}

	if err := s.store.Transact(ctx, func(tx store.Store) error {
		switch _, err := tx.SelectConfig(ctx); {
		case err == nil:
			return ErrAlreadyInstantiated
		case !errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("select config: %w", err)
		}

		if err := tx.UpsertConfig(ctx, cfg); err != nil {
			return fmt.Errorf("upsert config: %w", err)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	level.Info(s.logger).Log("msg", "instantiated", "owner", owner, "enabled", cfg.Enabled, "min_duration", cfg.MinDuration, "max_duration", cfg.MaxDuration)

	return cfg, nil
}

func (s *CoreService) UpdateConfig(ctx context.Context, sender string, u ConfigUpdate) (_ *Config, err error) {
	ctx = trc.PrefixContextf(ctx, "[UpdateConfig]")
	defer s.observe(ctx, "update_config", &err)

	var cfg *Config
	if err := s.store.Transact(ctx, func(tx store.Store) error {
		c, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}

		if sender != c.Owner {
			return &NotOwnerError{Sender: sender, Owner: c.Owner}
		}

		if u.MinDuration != nil {
			c.MinDuration = *u.MinDuration
		}
		if u.MaxDuration != nil {
			c.MaxDuration = *u.MaxDuration
		}
		if u.Enabled != nil {
			c.Enabled = *u.Enabled
		}
		if u.FeeRate != nil {
			c.FeeRate = *u.FeeRate
		}
		if u.DefaultDenom != nil {
			c.DefaultDenom = *u.DefaultDenom
		}
		if u.AllowedDepositors != nil {
			for _, d := range *u.AllowedDepositors {
				if err := s.addrs.ValidateAddress(d); err != nil {
					return badRequestf("allowed depositor: %v", err)
				}
			}
			c.AllowedDepositors = slices.Compact(sortedCopy(*u.AllowedDepositors))
		}
		if u.Owner != nil {
			if err := s.addrs.ValidateAddress(*u.Owner); err != nil {
				return badRequestf("owner: %v", err)
			}
			c.Owner = *u.Owner
		}

		if c.MinDuration > c.MaxDuration {
			return badRequestf("min duration %d exceeds max duration %d", c.MinDuration, c.MaxDuration)
		}

		if err := tx.UpsertConfig(ctx, c); err != nil {
			return fmt.Errorf("upsert config: %w", err)
		}

		cfg = c
		return nil
	}); err != nil {
		return nil, err
	}

	trc.Tracef(ctx, "config updated by %s", sender)

	return cfg, nil
}

func (s *CoreService) Config(ctx context.Context) (*Config, error) {
	ctx = trc.PrefixContextf(ctx, "[Config]")
	return loadConfig(ctx, s.store)
}

func (s *CoreService) CreateAuction(ctx context.Context, seller string, p CreateParams) (_ *Auction, err error) {
	ctx = trc.PrefixContextf(ctx, "[CreateAuction]")
	defer s.observe(ctx, "create_auction", &err)

	if err := s.addrs.ValidateAddress(seller); err != nil {
		return nil, badRequestf("seller: %v", err)
	}

	if p.PayToken != "" {
		if err := s.addrs.ValidateAddress(p.PayToken); err != nil {
			return nil, badRequestf("pay token: %v", err)
		}
	}

	var auction *Auction
	if err := s.store.Transact(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}

		a, err := newAuction(cfg, s.now(), seller, p)
		if err != nil {
			return err
		}

		if err := tx.InsertAuction(ctx, a); err != nil {
			return fmt.Errorf("insert auction: %w", err)
		}

		cfg.AuctionCounter = a.ID
		if err := tx.UpsertConfig(ctx, cfg); err != nil {
			return fmt.Errorf("bump auction counter: %w", err)
		}

		auction = a
		return nil
	}); err != nil {
		return nil, err
	}

	trc.Tracef(ctx, "auction %d window [%d, %d] paid in %s", auction.ID, auction.StartTime, EndTime(auction.StartTime, auction.Duration), auction.Payment)
	level.Debug(s.logger).Log("msg", "auction created", "auction", auction.ID, "seller", seller, "start", auction.StartTime, "duration", auction.Duration)

	return auction, nil
}

func (s *CoreService) DepositAsset(ctx context.Context, d Deposit) (_ *Auction, err error) {
	ctx = trc.PrefixContextf(ctx, "[DepositAsset]")

	defer func() {
		metrics.DepositsTotal.WithLabelValues(metrics.Result(err)).Inc()
	}()

	trc.Tracef(ctx, "auction %d contract %s token %s from %s", d.AuctionID, d.Contract, d.TokenID, d.Sender)

	var auction *Auction
	if err := s.store.Transact(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}

		a, err := loadAuction(ctx, tx, d.AuctionID)
		if err != nil {
			return err
		}

		if err := admitDeposit(cfg, a, s.now(), d); err != nil {
			return err
		}

		if err := tx.UpdateAuction(ctx, a); err != nil {
			return fmt.Errorf("update auction: %w", err)
		}

		auction = a
		return nil
	}); err != nil {
		trc.Errorf(ctx, "%v", err)
		return nil, err
	}

	return auction, nil
}

func (s *CoreService) BidNative(ctx context.Context, b NativeBid) (*Bid, error) {
	ctx = trc.PrefixContextf(ctx, "[BidNative]")
	trc.Tracef(ctx, "auction %d sender %s funds %d coin(s)", b.AuctionID, b.Sender, len(b.Funds))
	return s.bid(ctx, store.PaymentKindNative, b.AuctionID, b.Sender, b.Bidder, nativePayment(b.Funds))
}

func (s *CoreService) BidFungible(ctx context.Context, b FungibleBid) (*Bid, error) {
	ctx = trc.PrefixContextf(ctx, "[BidFungible]")
	trc.Tracef(ctx, "auction %d sender %s contract %s", b.AuctionID, b.Sender, b.Contract)
	return s.bid(ctx, store.PaymentKindFungible, b.AuctionID, b.Sender, b.Bidder, fungiblePayment(b.Contract, b.Amount))
}

func (s *CoreService) bid(ctx context.Context, kind PaymentKind, id uint64, sender, bidder string, pay paymentFunc) (_ *Bid, err error) {
	defer func() {
		metrics.BidsSubmittedTotal.WithLabelValues(string(kind), metrics.Result(err)).Inc()
	}()

	if bidder == "" {
		bidder = sender
	}

	if err := s.addrs.ValidateAddress(bidder); err != nil {
		return nil, badRequestf("bidder: %v", err)
	}

	var bid Bid
	if err := s.store.Transact(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}

		a, err := loadAuction(ctx, tx, id)
		if err != nil {
			return err
		}

		b, err := admitBid(cfg, a, s.now(), bidder, pay)
		if err != nil {
			return err
		}

		if err := tx.UpdateAuction(ctx, a); err != nil {
			return fmt.Errorf("update auction: %w", err)
		}

		bid = b
		return nil
	}); err != nil {
		trc.Errorf(ctx, "%v", err)
		return nil, err
	}

	trc.Tracef(ctx, "admitted %s from %s at %d", bid.Amount, bid.Bidder, bid.Time)

	return &bid, nil
}

func (s *CoreService) BlowCandle(ctx context.Context, id uint64) (_ *Receipt, err error) {
	ctx = trc.PrefixContextf(ctx, "[BlowCandle]")

	defer func() {
		metrics.SettlementsTotal.WithLabelValues(string(store.OutcomeCandle), metrics.Result(err)).Inc()
	}()

	if s.mode != SettlementCandle {
		return nil, fmt.Errorf("blow candle in %s mode: %w", s.mode, ErrSettlementDisabled)
	}

	// Check what we can before asking the beacon. Everything is checked
	// again inside the transaction.
	{
		cfg, err := loadConfig(ctx, s.store)
		if err != nil {
			return nil, err
		}
		if !cfg.Enabled {
			return nil, ErrAuctionDisabled
		}
		a, err := loadAuction(ctx, s.store, id)
		if err != nil {
			return nil, err
		}
		if err := checkSettleable(a, s.now()); err != nil {
			return nil, err
		}
		if len(a.Bids) <= 0 {
			return nil, badRequestf("auction %d has no bids, use flow refund", id)
		}
	}

	round := RoundFor(id)
	trc.Tracef(ctx, "auction %d: randomness round %d", id, round)

	rnd, err := s.fetchRandomness(ctx, round)
	if err != nil {
		return nil, err
	}

	return s.settle(ctx, id, func(a *Auction) (*Settlement, []*Transfer, error) {
		if len(a.Bids) <= 0 {
			return nil, nil, badRequestf("auction %d has no bids, use flow refund", id)
		}

		sel, err := SelectWinner(a.Bids, a.StartTime, a.Duration, rnd)
		if err != nil {
			return nil, nil, fmt.Errorf("select winner: %w", err)
		}

		ts, err := CandleTransfers(a, sel.Index)
		if err != nil {
			return nil, nil, err
		}

		metrics.CandleCutoffOffsetRatio.Observe(float64(sel.Offset) / float64(a.Duration))

		winner := a.Bids[sel.Index]
		return &Settlement{
			Outcome: store.OutcomeCandle,
			Round:   round,
			Cutoff:  sel.Cutoff,
			Winner:  &winner,
		}, ts, nil
	})
}

func (s *CoreService) FlowRefund(ctx context.Context, id uint64) (_ *Receipt, err error) {
	ctx = trc.PrefixContextf(ctx, "[FlowRefund]")

	defer func() {
		metrics.SettlementsTotal.WithLabelValues(string(store.OutcomeFlow), metrics.Result(err)).Inc()
	}()

	return s.settle(ctx, id, func(a *Auction) (*Settlement, []*Transfer, error) {
		ts, err := FlowTransfers(a)
		if err != nil {
			return nil, nil, err
		}
		return &Settlement{Outcome: store.OutcomeFlow}, ts, nil
	})
}

func (s *CoreService) WinnerClaim(ctx context.Context, id uint64, sender, winner string) (_ *Receipt, err error) {
	ctx = trc.PrefixContextf(ctx, "[WinnerClaim]")

	defer func() {
		metrics.SettlementsTotal.WithLabelValues(string(store.OutcomeClaim), metrics.Result(err)).Inc()
	}()

	if s.mode != SettlementClaim {
		return nil, fmt.Errorf("winner claim in %s mode: %w", s.mode, ErrSettlementDisabled)
	}

	if winner == "" {
		winner = sender
	}

	return s.settle(ctx, id, func(a *Auction) (*Settlement, []*Transfer, error) {
		ts, err := ClaimTransfers(a, winner)
		if err != nil {
			return nil, nil, err
		}
		w := *a.ProvisionalWinner
		return &Settlement{Outcome: store.OutcomeClaim, Winner: &w}, ts, nil
	})
}

// settle runs one settlement path inside a transaction. The auction is
// marked settled and its transfers are queued together, or not at all.
// Nothing settles while the config is disabled.
func (s *CoreService) settle(ctx context.Context, id uint64, compute func(*Auction) (*Settlement, []*Transfer, error)) (*Receipt, error) {
	var receipt *Receipt
	if err := s.store.Transact(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}

		if !cfg.Enabled {
			return ErrAuctionDisabled
		}

		a, err := loadAuction(ctx, tx, id)
		if err != nil {
			return err
		}

		now := s.now()
		if err := checkSettleable(a, now); err != nil {
			return err
		}

		settlement, ts, err := compute(a)
		if err != nil {
			return err
		}

		settlement.SettledAt = time.Unix(int64(now), 0).UTC()
		a.Settled = true
		a.Settlement = settlement

		if err := tx.UpdateAuction(ctx, a); err != nil {
			return fmt.Errorf("update auction: %w", err)
		}

		if err := tx.InsertTransfers(ctx, ts...); err != nil {
			return fmt.Errorf("queue transfers: %w", err)
		}

		receipt = &Receipt{Auction: a, Transfers: ts}
		return nil
	}); err != nil {
		trc.Errorf(ctx, "%v", err)
		return nil, err
	}

	for _, t := range receipt.Transfers {
		metrics.TransfersTotal.WithLabelValues(string(t.Kind)).Inc()
	}

	keyvals := []any{"msg", "auction settled", "auction", id, "outcome", receipt.Auction.Settlement.Outcome, "transfers", len(receipt.Transfers)}
	if w := receipt.Auction.Settlement.Winner; w != nil {
		keyvals = append(keyvals, "winner", w.Bidder, "amount", w.Amount.String())
	}
	level.Info(s.logger).Log(keyvals...)

	return receipt, nil
}

func (s *CoreService) fetchRandomness(ctx context.Context, round uint64) ([]byte, error) {
	defer metrics.OpWaitSince("randomness", time.Now())

	rnd, err := s.randomness.Randomness(ctx, round)
	switch {
	case errors.Is(err, randomness.ErrUnavailable):
		return nil, fmt.Errorf("round %d: %w", round, ErrRandomnessUnavailable)
	case err != nil:
		return nil, fmt.Errorf("fetch randomness for round %d: %w", round, err)
	case len(rnd) == 0:
		return nil, fmt.Errorf("round %d: empty value: %w", round, ErrRandomnessUnavailable)
	}

	trc.Tracef(ctx, "round %d: %dB of randomness", round, len(rnd))

	return rnd, nil
}

func (s *CoreService) Auction(ctx context.Context, id uint64) (_ *Auction, err error) {
	ctx = trc.PrefixContextf(ctx, "[Auction]")
	defer s.observe(ctx, "auction", &err)

	a, err := s.store.SelectAuction(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		trc.Tracef(ctx, "auction %d: absent", id)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("select auction: %w", err)
	}

	return a, nil
}

func (s *CoreService) ListAuctions(ctx context.Context, p ListParams) (_ []*Auction, err error) {
	ctx = trc.PrefixContextf(ctx, "[ListAuctions]")
	defer s.observe(ctx, "list_auctions", &err)

	limit := int(p.Limit)
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	var (
		now      = s.now()
		skip     = uint64(p.Page) * uint64(limit)
		cursor   = uint64(0)
		batch    = limit
		auctions = make([]*Auction, 0, limit)
	)

	if p.Status != nil {
		batch = MaxListLimit
	}

	for len(auctions) < limit {
		as, err := s.store.ListAuctions(ctx, cursor, batch)
		if err != nil {
			return nil, fmt.Errorf("list auctions: %w", err)
		}

		for _, a := range as {
			if p.Status != nil && StatusOf(a, now) != *p.Status {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			auctions = append(auctions, a)
			if len(auctions) >= limit {
				break
			}
		}

		if len(as) < batch {
			break
		}
		cursor = as[len(as)-1].ID
	}

	trc.Tracef(ctx, "page %d limit %d: %d auction(s)", p.Page, limit, len(auctions))

	return auctions, nil
}

func (s *CoreService) Transfers(ctx context.Context, id uint64) (_ []*Transfer, err error) {
	ctx = trc.PrefixContextf(ctx, "[Transfers]")
	defer s.observe(ctx, "transfers", &err)

	if _, err := loadAuction(ctx, s.store, id); err != nil {
		return nil, err
	}

	ts, err := s.store.ListTransfers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}

	return ts, nil
}

func (s *CoreService) observe(ctx context.Context, op string, err *error) {
	result := boolString(*err == nil, "success", "error")
	metrics.AuctionRequestsTotal.WithLabelValues(op, result).Inc()
	if *err != nil {
		trc.Errorf(ctx, "%v", *err)
	}
}

//
//
//

func loadConfig(ctx context.Context, s store.Store) (*Config, error) {
	cfg, err := s.SelectConfig(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrNotInstantiated
	case err != nil:
		return nil, fmt.Errorf("select config: %w", err)
	}
	return cfg, nil
}

func loadAuction(ctx context.Context, s store.Store, id uint64) (*Auction, error) {
	a, err := s.SelectAuction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("auction %d: %w", id, err)
	}
	return a, nil
}

func checkSettleable(a *Auction, now uint64) error {
	if a.Settled {
		return fmt.Errorf("auction %d: %w", a.ID, ErrAlreadySettled)
	}
	if status := StatusOf(a, now); status != StatusEnded {
		return fmt.Errorf("auction %d is %s, window ends at %d: %w", a.ID, status, EndTime(a.StartTime, a.Duration), ErrAuctionNotEnded)
	}
	return nil
}

func sortedCopy(ss []string) []string {
	c := slices.Clone(ss)
	slices.Sort(c)
	return c
}
