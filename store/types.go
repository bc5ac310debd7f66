package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cosmossdk.io/math"
	"github.com/gofrs/uuid"
)

type Config struct {
	AuctionCounter    uint64 // highest assigned auction ID
	MinDuration       uint64
	MaxDuration       uint64
	Enabled           bool
	FeeRate           uint64 // carried, not applied
	DefaultDenom      string
	AllowedDepositors []string
	Owner             string
	RandomnessSource  string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Auction struct {
	ID                uint64
	Name              string
	Seller            string
	StartTime         uint64
	Duration          uint64
	Payment           PaymentAsset
	MinPrice          *math.Uint
	EscrowedAssets    []EscrowAsset
	Bids              []Bid // append-only, insertion order is chronological order
	BidCount          uint32
	ProvisionalWinner *Bid
	Settled           bool
	Settlement        *Settlement
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type PaymentAsset struct {
	Kind PaymentKind `json:"kind"`
	Ref  string      `json:"ref"` // denom for native payments, token contract for fungible ones
}

func (p PaymentAsset) String() string {
	return fmt.Sprintf("%s:%s", p.Kind, p.Ref)
}

type PaymentKind string

const (
	PaymentKindNative   PaymentKind = "native"
	PaymentKindFungible PaymentKind = "fungible"
)

func ParsePaymentKind(s string) (PaymentKind, error) {
	switch strings.ToLower(s) {
	case string(PaymentKindNative):
		return PaymentKindNative, nil
	case string(PaymentKindFungible):
		return PaymentKindFungible, nil
	default:
		return "", fmt.Errorf("unknown payment kind %q", s)
	}
}

type EscrowAsset struct {
	Contract string `json:"contract"`
	TokenID  string `json:"token_id"`
}

type Bid struct {
	Bidder string    `json:"bidder"`
	Time   uint64    `json:"time"`
	Amount math.Uint `json:"amount"`
}

type Settlement struct {
	Outcome   Outcome   `json:"outcome"`
	Round     uint64    `json:"round,omitempty"`
	Cutoff    uint64    `json:"cutoff,omitempty"`
	Winner    *Bid      `json:"winner,omitempty"`
	SettledAt time.Time `json:"settled_at"`
}

type Outcome string

const (
	OutcomeCandle Outcome = "candle" // winner drawn by blowing the candle
	OutcomeFlow   Outcome = "flow"   // no bids, assets returned to the seller
	OutcomeClaim  Outcome = "claim"  // provisional winner claimed the assets
)

type Status string

const (
	StatusNotStarted    Status = "not_started"
	StatusOpeningPeriod Status = "opening_period"
	StatusEnded         Status = "ended"
)

func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case string(StatusNotStarted), "notstarted":
		return StatusNotStarted, nil
	case string(StatusOpeningPeriod), "openingperiod", "open":
		return StatusOpeningPeriod, nil
	case string(StatusEnded), "closed":
		return StatusEnded, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// Transfer is an outbound movement computed by settlement. Exactly one of
// Funds and Asset is set.
type Transfer struct {
	ID        uuid.UUID
	AuctionID uint64
	Seq       int
	Kind      TransferKind
	Recipient string
	Funds     *Funds
	Asset     *EscrowAsset
	CreatedAt time.Time
}

type Funds struct {
	Payment PaymentAsset `json:"payment"`
	Amount  math.Uint    `json:"amount"`
}

type TransferKind string

const (
	TransferKindRefund  TransferKind = "refund"
	TransferKindPayment TransferKind = "payment"
	TransferKindAsset   TransferKind = "asset"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)
