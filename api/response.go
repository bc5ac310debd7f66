package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"candle/auction"
	"candle/store"
	"candle/trc"

	sdkmath "cosmossdk.io/math"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

func respondOK(w http.ResponseWriter, r *http.Request, response any) {
	w.Header().Set("content-type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		trc.Errorf(r.Context(), "write response: %v", err)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error, fallbackCode int, logger log.Logger) {
	code, trueError := classifyError(err, fallbackCode)

	if trueError {
		trc.Errorf(r.Context(), "error: %v (%d)", err, code)
		level.Error(logger).Log("remote_addr", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "err", err, "code", code)
	} else {
		trc.Tracef(r.Context(), "quasi-error: %v (%d)", err, code)
	}

	var details map[string]any
	var d detailer
	if errors.As(err, &d) {
		details = d.Details()
	}

	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(errorResponse{
		Error:      err.Error(),
		StatusCode: code,
		StatusText: http.StatusText(code),
		Details:    details,
	}); err != nil {
		trc.Errorf(r.Context(), "write response: %v", err)
	}
}

func classifyError(err error, fallback int) (int, bool) {
	switch {
	case err == nil:
		return http.StatusOK, false
	case errors.Is(err, ErrNoSender):
		return http.StatusUnauthorized, false
	case errors.Is(err, ErrInvalidAuctionID), errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidMessage):
		return http.StatusBadRequest, false
	case errors.Is(err, auction.ErrUnauthorized), errors.Is(err, auction.ErrNotWinner):
		return http.StatusForbidden, false
	case errors.Is(err, auction.ErrNotOpeningPeriod), errors.Is(err, auction.ErrAlreadyInstantiated):
		return http.StatusConflict, false
	case errors.Is(err, auction.ErrAuctionNotEnded):
		return http.StatusTooEarly, false
	case errors.Is(err, auction.ErrPriceTooLow):
		return http.StatusUnprocessableEntity, false
	case errors.Is(err, auction.ErrAlreadySettled):
		return http.StatusGone, false
	case errors.Is(err, auction.ErrSettlementDisabled):
		return http.StatusNotImplemented, false
	case errors.Is(err, auction.ErrAuctionDisabled), errors.Is(err, auction.ErrNotInstantiated):
		return http.StatusServiceUnavailable, false
	case errors.Is(err, auction.ErrRandomnessUnavailable):
		return http.StatusServiceUnavailable, true
	case errors.Is(err, auction.ErrDurationOutOfRange):
		return http.StatusBadRequest, false
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, auction.ErrBadRequest):
		return http.StatusBadRequest, true
	default:
		return fallback, true
	}
}

type detailer interface {
	Details() map[string]any
}

type errorResponse struct {
	Error      string         `json:"error"`
	StatusCode int            `json:"status_code"`
	StatusText string         `json:"status_text"`
	Details    map[string]any `json:"details,omitempty"`
}

//
//
//

type configView struct {
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

func newConfigView(c *auction.Config) configView {
	allowed := c.AllowedDepositors
	if allowed == nil {
		allowed = []string{}
	}
	return configView{
		AuctionCounter:    c.AuctionCounter,
		MinDuration:       c.MinDuration,
		MaxDuration:       c.MaxDuration,
		Enabled:           c.Enabled,
		FeeRate:           c.FeeRate,
		DefaultDenom:      c.DefaultDenom,
		AllowedDepositors: allowed,
		Owner:             c.Owner,
		RandomnessSource:  c.RandomnessSource,
	}
}

type auctionView struct {
	ID                uint64                `json:"id"`
	Name              string                `json:"name,omitempty"`
	Seller            string                `json:"seller"`
	StartTime         uint64                `json:"start_time"`
	Duration          uint64                `json:"duration"`
	EndTime           uint64                `json:"end_time"`
	Status            auction.Status        `json:"status"`
	Payment           auction.PaymentAsset  `json:"payment"`
	MinPrice          *sdkmath.Uint         `json:"min_price,omitempty"`
	EscrowedAssets    []auction.EscrowAsset `json:"escrowed_assets"`
	Bids              []auction.Bid         `json:"bids"`
	BidCount          uint32                `json:"bid_count"`
	ProvisionalWinner *auction.Bid          `json:"provisional_winner,omitempty"`
	Settled           bool                  `json:"settled"`
	Settlement        *auction.Settlement   `json:"settlement,omitempty"`
}

func newAuctionView(a *auction.Auction, now uint64) auctionView {
	v := auctionView{
		ID:                a.ID,
		Name:              a.Name,
		Seller:            a.Seller,
		StartTime:         a.StartTime,
		Duration:          a.Duration,
		EndTime:           auction.EndTime(a.StartTime, a.Duration),
		Status:            auction.StatusOf(a, now),
		Payment:           a.Payment,
		MinPrice:          a.MinPrice,
		EscrowedAssets:    a.EscrowedAssets,
		Bids:              a.Bids,
		BidCount:          a.BidCount,
		ProvisionalWinner: a.ProvisionalWinner,
		Settled:           a.Settled,
		Settlement:        a.Settlement,
	}
	if v.EscrowedAssets == nil {
		v.EscrowedAssets = []auction.EscrowAsset{}
	}
	if v.Bids == nil {
		v.Bids = []auction.Bid{}
	}
	return v
}

type listResponse struct {
	Auctions []auctionView `json:"auctions"`
}

type bidResponse struct {
	AuctionID uint64 `json:"auction_id"`
	auction.Bid
}

type transferView struct {
	ID        string               `json:"id"`
	Seq       int                  `json:"seq"`
	Kind      store.TransferKind   `json:"kind"`
	Recipient string               `json:"recipient"`
	Funds     *auction.Funds       `json:"funds,omitempty"`
	Asset     *auction.EscrowAsset `json:"asset,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

func newTransferViews(ts []*auction.Transfer) []transferView {
	views := make([]transferView, len(ts))
	for i, t := range ts {
		views[i] = transferView{
			ID:        t.ID.String(),
			Seq:       t.Seq,
			Kind:      t.Kind,
			Recipient: t.Recipient,
			Funds:     t.Funds,
			Asset:     t.Asset,
			CreatedAt: t.CreatedAt,
		}
	}
	return views
}

type receiptResponse struct {
	Auction   auctionView    `json:"auction"`
	Transfers []transferView `json:"transfers"`
}

type transfersResponse struct {
	AuctionID uint64         `json:"auction_id"`
	Transfers []transferView `json:"transfers"`
}
