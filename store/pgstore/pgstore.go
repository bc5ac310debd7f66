package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"candle/metrics"
	"candle/store"
	"candle/store/pgstore/migrations"
	"candle/trc"

	"cosmossdk.io/math"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gofrs/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jackc/tern/migrate"
	"github.com/prometheus/client_golang/prometheus"
)

type Store struct {
	db     connOrTx
	logger log.Logger
}

var _ store.Store = (*Store)(nil)

type connOrTx interface {
	Query(ctx context.Context, q string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, q string, args ...any) pgx.Row
	Exec(ctx context.Context, q string, args ...any) (pgconn.CommandTag, error)
}

func NewStore(ctx context.Context, connStr string, logger log.Logger) (_ *Store, err error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if config.MaxConnIdleTime == 0 {
		config.MaxConnIdleTime = 5 * time.Minute
	}

	if config.MaxConns == 0 {
		config.MaxConns = 4
	}

	if config.MinConns == 0 {
		config.MinConns = 1
	}

	if config.ConnConfig.ConnectTimeout == 0 {
		config.ConnConfig.ConnectTimeout = 5 * time.Second
	}

	config.ConnConfig.Logger = &pgDebugLogAdapter{
		Logger: log.With(logger, "submodule", "postgres"),
	}

	config.AfterConnect = func(ctx context.Context, c *pgx.Conn) error {
		level.Debug(logger).Log("event", "new db connection")

		for _, q := range []string{
			`set timezone='UTC'`,
			`set lock_timeout='5s'`,
			`set statement_timeout='5s'`,
		} {
			if _, err := c.Exec(ctx, q); err != nil {
				return fmt.Errorf("db connection setup query %q: %w", q, err)
			}
		}

		return nil
	}

	level.Debug(logger).Log("msg", "connecting")

	pool, err := pgxpool.ConnectConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	defer func() {
		if err != nil {
			pool.Close()
		}
	}()

	{
		var (
			user = config.ConnConfig.User
			host = config.ConnConfig.Host
			name = config.ConnConfig.Database
			fn   = func() stat { return pool.Stat() }
			pc   = newPoolCollector(user, host, name, fn)
		)
		if err := prometheus.Register(pc); err != nil {
			return nil, fmt.Errorf("metrics registration failed: %w", err)
		}
	}

	if err = pool.AcquireFunc(ctx, func(c *pgxpool.Conn) error {
		return migrateDB(ctx, c.Conn(), logger)
	}); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Store{db: pool, logger: logger}, nil
}

func (s *Store) Close() error {
	switch x := s.db.(type) {
	case *pgx.Conn:
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return x.Close(ctx)
	case *pgxpool.Pool:
		x.Close()
		return nil
	case pgx.Tx:
		return nil
	default:
		return fmt.Errorf("close with unknown DB type %T", s.db)
	}
}

func migrateDB(ctx context.Context, conn *pgx.Conn, logger log.Logger) error {
	m, err := migrate.NewMigratorEx(ctx, conn, "public.schema_version", &migrate.MigratorOptions{
		MigratorFS: migrations.FS,
	})
	if err != nil {
		return fmt.Errorf("new migrator: %w", err)
	}

	if err = m.LoadMigrations("."); err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	m.OnStart = func(sequence int32, name, direction, sql string) {
		level.Info(logger).Log("msg", "applying migration", "sequence", sequence, "name", name, "direction", direction)
	}

	if err = m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	level.Debug(logger).Log("msg", "migrations done", "count", len(m.Migrations))

	return nil
}

// Transact runs f in a serializable transaction, retrying serialization
// failures a small number of times.
func (s *Store) Transact(ctx context.Context, f func(store.Store) error) error {
	defer func(begin time.Time) {
		trc.Tracef(ctx, "Transact took %s", time.Since(begin))
	}(time.Now())

	var err error
	for try, max := 1, 3; try <= max; try++ {
		err = s.transactDirect(ctx, f)
		switch {
		case err == nil:
			return nil
		case hasCode(err, "40001"): // concurrent updates
			trc.Tracef(ctx, "Transact error (%v), retryable, attempt %d/%d", err, try, max)
		default:
			return err
		}
	}

	return err
}

func (s *Store) transactDirect(ctx context.Context, f func(store.Store) error) error {
	var entered time.Time
	defer func(begin time.Time) {
		if !entered.IsZero() {
			took := entered.Sub(begin)
			metrics.OpWait("pgstore_transactdirect", took)
			trc.LazyTracef(ctx, "transactDirect waited for %s", took)
		}
	}(time.Now())

	txFunc := func(tx pgx.Tx) error {
		entered = time.Now()
		return f(&Store{
			db:     tx,
			logger: s.logger,
		})
	}

	opts := pgx.TxOptions{IsoLevel: pgx.Serializable}

	switch x := s.db.(type) {
	case *pgx.Conn:
		return x.BeginTxFunc(ctx, opts, txFunc)
	case *pgxpool.Pool:
		return x.BeginTxFunc(ctx, opts, txFunc)
	case pgx.Tx:
		return x.BeginFunc(ctx, txFunc)
	default:
		return fmt.Errorf("unknown DB type %T", s.db)
	}
}

func (s *Store) Ping(ctx context.Context) error {
	var n int
	return s.db.QueryRow(ctx, `select 1`).Scan(&n)
}

//
// config
//

type configRecord struct {
	AuctionCounter    uint64   `json:"auction_counter"`
	MinDuration       uint64   `json:"min_duration"`
	MaxDuration       uint64   `json:"max_duration"`
	Enabled           bool     `json:"enabled"`
	FeeRate           uint64   `json:"fee_rate"`
	DefaultDenom      string   `json:"default_denom"`
	AllowedDepositors []string `json:"allowed_depositors"`
	Owner             string   `json:"owner"`
	RandomnessSource  string   `json:"randomness_source"`
}

const selectConfigQuery = `
select
	record,
	created_at,
	updated_at
from
	config
where
	id = 1
`

func (s *Store) SelectConfig(ctx context.Context) (*store.Config, error) {
	var (
		c      store.Config
		record []byte
	)
	if err := s.db.QueryRow(ctx, selectConfigQuery).Scan(
		&record,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, convertError(err)
	}

	var r configRecord
	if err := json.Unmarshal(record, &r); err != nil {
		return nil, fmt.Errorf("decode config record: %w", err)
	}

	c.AuctionCounter = r.AuctionCounter
	c.MinDuration = r.MinDuration
	c.MaxDuration = r.MaxDuration
	c.Enabled = r.Enabled
	c.FeeRate = r.FeeRate
	c.DefaultDenom = r.DefaultDenom
	c.AllowedDepositors = r.AllowedDepositors
	c.Owner = r.Owner
	c.RandomnessSource = r.RandomnessSource

	return &c, nil
}

const upsertConfigQuery = `
insert into config
(
	id,
	record
)
values (1, $1)
on conflict (id) do update
set
	record     = excluded.record,
	updated_at = now()
returning
	created_at,
	updated_at
`

func (s *Store) UpsertConfig(ctx context.Context, c *store.Config) error {
	record, err := json.Marshal(configRecord{
		AuctionCounter:    c.AuctionCounter,
		MinDuration:       c.MinDuration,
		MaxDuration:       c.MaxDuration,
		Enabled:           c.Enabled,
		FeeRate:           c.FeeRate,
		DefaultDenom:      c.DefaultDenom,
		AllowedDepositors: c.AllowedDepositors,
		Owner:             c.Owner,
		RandomnessSource:  c.RandomnessSource,
	})
	if err != nil {
		return fmt.Errorf("encode config record: %w", err)
	}

	if err := s.db.QueryRow(ctx, upsertConfigQuery, record).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("config: %w", convertError(err))
	}

	return nil
}

//
// auctions
//

type auctionRecord struct {
	Name              string              `json:"name"`
	StartTime         uint64              `json:"start_time"`
	Duration          uint64              `json:"duration"`
	Payment           store.PaymentAsset  `json:"payment"`
	MinPrice          *math.Uint          `json:"min_price"`
	EscrowedAssets    []store.EscrowAsset `json:"escrowed_assets"`
	Bids              []store.Bid         `json:"bids"`
	BidCount          uint32              `json:"bid_count"`
	ProvisionalWinner *store.Bid          `json:"provisional_winner"`
	Settlement        *store.Settlement   `json:"settlement"`
}

func encodeAuction(a *store.Auction) ([]byte, error) {
	return json.Marshal(auctionRecord{
		Name:              a.Name,
		StartTime:         a.StartTime,
		Duration:          a.Duration,
		Payment:           a.Payment,
		MinPrice:          a.MinPrice,
		EscrowedAssets:    a.EscrowedAssets,
		Bids:              a.Bids,
		BidCount:          a.BidCount,
		ProvisionalWinner: a.ProvisionalWinner,
		Settlement:        a.Settlement,
	})
}

func decodeAuction(record []byte, a *store.Auction) error {
	var r auctionRecord
	if err := json.Unmarshal(record, &r); err != nil {
		return fmt.Errorf("decode auction record: %w", err)
	}

	a.Name = r.Name
	a.StartTime = r.StartTime
	a.Duration = r.Duration
	a.Payment = r.Payment
	a.MinPrice = r.MinPrice
	a.EscrowedAssets = r.EscrowedAssets
	a.Bids = r.Bids
	a.BidCount = r.BidCount
	a.ProvisionalWinner = r.ProvisionalWinner
	a.Settlement = r.Settlement

	return nil
}

const insertAuctionQuery = `
insert into auctions
(
	id,
	seller,
	settled,
	record
)
values ($1, $2, $3, $4)
returning
	created_at,
	updated_at
`

func (s *Store) InsertAuction(ctx context.Context, a *store.Auction) error {
	record, err := encodeAuction(a)
	if err != nil {
		return err
	}

	if err := s.db.QueryRow(ctx, insertAuctionQuery,
		a.ID,
		a.Seller,
		a.Settled,
		record,
	).Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return fmt.Errorf("auction %d: %w", a.ID, convertError(err))
	}

	return nil
}

const updateAuctionQuery = `
update auctions
set
	seller     = $2,
	settled    = $3,
	record     = $4,
	updated_at = now()
where
	id = $1
returning
	created_at,
	updated_at
`

func (s *Store) UpdateAuction(ctx context.Context, a *store.Auction) error {
	record, err := encodeAuction(a)
	if err != nil {
		return err
	}

	if err := s.db.QueryRow(ctx, updateAuctionQuery,
		a.ID,
		a.Seller,
		a.Settled,
		record,
	).Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return convertError(err)
	}

	return nil
}

const selectAuctionQuery = `
select
	id,
	seller,
	settled,
	record,
	created_at,
	updated_at
from
	auctions
where
	id = $1
`

func (s *Store) SelectAuction(ctx context.Context, id uint64) (*store.Auction, error) {
	a, err := scanAuction(s.db.QueryRow(ctx, selectAuctionQuery, id))
	if err != nil {
		return nil, convertError(err)
	}
	return a, nil
}

const listAuctionsQuery = `
select
	id,
	seller,
	settled,
	record,
	created_at,
	updated_at
from
	auctions
where
	$1::bigint = 0 or id < $1::bigint
order by
	id desc
limit $2
`

func (s *Store) ListAuctions(ctx context.Context, beforeID uint64, limit int) ([]*store.Auction, error) {
	rows, err := s.db.Query(ctx, listAuctionsQuery, beforeID, limit)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var as []*store.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		as = append(as, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan err: %w", err)
	}

	return as, nil
}

func scanAuction(row pgx.Row) (*store.Auction, error) {
	var (
		a      store.Auction
		record []byte
	)
	if err := row.Scan(
		&a.ID,
		&a.Seller,
		&a.Settled,
		&record,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := decodeAuction(record, &a); err != nil {
		return nil, err
	}

	return &a, nil
}

//
// transfers
//

const insertTransferQuery = `
insert into transfers
(
	id,
	auction_id,
	seq,
	kind,
	recipient,
	funds,
	asset
)
values ($1, $2, $3, $4, $5, $6, $7)
returning
	created_at
`

func (s *Store) InsertTransfers(ctx context.Context, ts ...*store.Transfer) error {
	for _, t := range ts {
		if t.ID.IsNil() {
			var err error
			if t.ID, err = uuid.NewV4(); err != nil {
				return fmt.Errorf("uuid gen failed: %w", err)
			}
		}

		var funds, asset []byte
		if t.Funds != nil {
			b, err := json.Marshal(t.Funds)
			if err != nil {
				return fmt.Errorf("encode transfer funds: %w", err)
			}
			funds = b
		}
		if t.Asset != nil {
			b, err := json.Marshal(t.Asset)
			if err != nil {
				return fmt.Errorf("encode transfer asset: %w", err)
			}
			asset = b
		}

		if err := s.db.QueryRow(ctx, insertTransferQuery,
			t.ID,
			t.AuctionID,
			t.Seq,
			t.Kind,
			t.Recipient,
			funds,
			asset,
		).Scan(&t.CreatedAt); err != nil {
			return fmt.Errorf("transfer %d/%d: %w", t.AuctionID, t.Seq, convertError(err))
		}
	}

	return nil
}

const listTransfersQuery = `
select
	id,
	auction_id,
	seq,
	kind,
	recipient,
	funds,
	asset,
	created_at
from
	transfers
where
	auction_id = $1
order by
	seq asc
`

func (s *Store) ListTransfers(ctx context.Context, auctionID uint64) ([]*store.Transfer, error) {
	rows, err := s.db.Query(ctx, listTransfersQuery, auctionID)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	ts := []*store.Transfer{}
	for rows.Next() {
		var (
			t     store.Transfer
			funds pgtype.JSONB
			asset pgtype.JSONB
		)

		if err = rows.Scan(
			&t.ID,
			&t.AuctionID,
			&t.Seq,
			&t.Kind,
			&t.Recipient,
			&funds,
			&asset,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		if funds.Status == pgtype.Present {
			t.Funds = &store.Funds{}
			if err := json.Unmarshal(funds.Bytes, t.Funds); err != nil {
				return nil, fmt.Errorf("decode transfer funds: %w", err)
			}
		}

		if asset.Status == pgtype.Present {
			t.Asset = &store.EscrowAsset{}
			if err := json.Unmarshal(asset.Bytes, t.Asset); err != nil {
				return nil, fmt.Errorf("decode transfer asset: %w", err)
			}
		}

		ts = append(ts, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan err: %w", err)
	}

	return ts, nil
}

//
//
//

func hasCode(err error, code string) bool {
	var pgerr *pgconn.PgError
	return errors.As(err, &pgerr) && pgerr.Code == code
}

func convertError(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return store.ErrNotFound
	case hasCode(err, "23505"): // unique_violation
		return fmt.Errorf("%w: %v", store.ErrAlreadyExists, err)
	default:
		return err
	}
}

//
//
//

type pgDebugLogAdapter struct{ log.Logger }

func (a *pgDebugLogAdapter) Log(ctx context.Context, pgxlevel pgx.LogLevel, msg string, data map[string]interface{}) {
	keyvals := []interface{}{
		"pgxlevel", pgxlevel.String(),
		"msg", msg,
	}
	for k, v := range data {
		keyvals = append(keyvals, k, fmt.Sprintf("%v", v))
	}
	level.Debug(a.Logger).Log(keyvals...)
}
