package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"candle/auction"
	"candle/debug"
	"candle/store"
	"candle/trc"

	sdkmath "cosmossdk.io/math"
	"github.com/go-kit/log"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// SenderHeaderKey carries the authenticated caller. For /v1/receive it is
// the contract forwarding the message.
const SenderHeaderKey = "x-candle-sender"

var (
	ErrNoSender         = errors.New("no sender")
	ErrInvalidAuctionID = errors.New("invalid auction ID")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidMessage   = errors.New("invalid receive message")
)

type Handler struct {
	router  *mux.Router
	logger  log.Logger
	service auction.Service
}

func NewHandler(service auction.Service, logger log.Logger) *Handler {
	s := &Handler{
		router:  mux.NewRouter(),
		service: service,
		logger:  logger,
	}

	s.router.Methods("GET").Path("/-/ping").HandlerFunc(s.handleGetPing)
	s.router.Methods("GET").Path("/-/panic").HandlerFunc(s.handleGetPanic)

	s.router.Methods("GET").Path("/v1/config").HandlerFunc(s.handleGetConfig)
	s.router.Methods("POST").Path("/v1/config").HandlerFunc(s.handlePostConfig)
	s.router.Methods("PUT").Path("/v1/config").HandlerFunc(s.handlePutConfig)

	s.router.Methods("GET").Path("/v1/auctions").HandlerFunc(s.handleGetAuctions)
	s.router.Methods("POST").Path("/v1/auctions").HandlerFunc(s.handlePostAuctions)
	s.router.Methods("GET").Path("/v1/auctions/{id}").HandlerFunc(s.handleGetAuction)
	s.router.Methods("POST").Path("/v1/auctions/{id}/bid").HandlerFunc(s.handlePostBid)
	s.router.Methods("POST").Path("/v1/auctions/{id}/blow-candle").HandlerFunc(s.handlePostBlowCandle)
	s.router.Methods("POST").Path("/v1/auctions/{id}/flow-refund").HandlerFunc(s.handlePostFlowRefund)
	s.router.Methods("POST").Path("/v1/auctions/{id}/claim").HandlerFunc(s.handlePostClaim)
	s.router.Methods("GET").Path("/v1/auctions/{id}/transfers").HandlerFunc(s.handleGetTransfers)

	s.router.Methods("POST").Path("/v1/receive").HandlerFunc(s.handlePostReceive)

	s.router.Methods("OPTIONS").Handler(http.NotFoundHandler()) // answered by corsHeadersMiddleware

	s.router.Use(
		corsHeadersMiddleware,
		debug.GunzipRequestMiddleware,
		debug.TracingMiddleware,
		debug.MetricsMiddleware,
		panicRecoveryMiddleware(s.logger), // should be after observability middlewares
		// the handler executes here
	)

	return s
}

func (s *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

//
//
//

func (s *Handler) handleGetPing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return s.service.Ping(ctx) })
	eg.Go(func() error { _, err := s.service.Config(ctx); return err })

	err := eg.Wait()

	switch {
	case err == nil:
		respondOK(w, r, struct{}{})
	case err != nil:
		respondError(w, r, fmt.Errorf("ping: %w", err), http.StatusInternalServerError, s.logger)
	}
}

func (s *Handler) handleGetPanic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	trc.Tracef(ctx, "panicking as requested")
	panic("requested panic")
}

//
//
//

func (s *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.service.Config(r.Context())
	if err != nil {
		respondError(w, r, fmt.Errorf("get config: %w", err), http.StatusInternalServerError, s.logger)
		return
	}

	respondOK(w, r, newConfigView(cfg))
}

type instantiateRequest struct {
	MinDuration       uint64   `json:"min_duration"`
	MaxDuration       uint64   `json:"max_duration"`
	Enabled           bool     `json:"enabled"`
	FeeRate           uint64   `json:"fee_rate"`
	DefaultDenom      string   `json:"default_denom"`
	AllowedDepositors []string `json:"allowed_depositors"`
	RandomnessSource  string   `json:"randomness_source"`
}

func (req *instantiateRequest) validate() error {
	var merr multiError
	merr.addIf(req.MaxDuration == 0, fmt.Errorf("max duration missing"))
	merr.addIf(req.MinDuration > req.MaxDuration, fmt.Errorf("min duration exceeds max duration"))
	return merr.yield()
}

func (s *Handler) handlePostConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := getSender(r)
	if err != nil {
		respondError(w, r, err, http.StatusUnauthorized, s.logger)
		return
	}

	var req instantiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("decode instantiate request: %w", err), http.StatusBadRequest, s.logger)
		return
	}

	if err := req.validate(); err != nil {
		respondError(w, r, fmt.Errorf("request invalid: %w", err), http.StatusBadRequest, s.logger)
		return
	}

	trc.Tracef(ctx, "instantiate, owner %s", owner)

	cfg, err := s.service.Instantiate(ctx, owner, auction.InstantiateParams{
		MinDuration:       req.MinDuration,
		MaxDuration:       req.MaxDuration,
		Enabled:           req.Enabled,
		FeeRate:           req.FeeRate,
		DefaultDenom:      req.DefaultDenom,
		AllowedDepositors: req.AllowedDepositors,
		RandomnessSource:  req.RandomnessSource,
	})
	if err != nil {
		respondError(w, r, fmt.Errorf("instantiate: %w", err), http.StatusInternalServerError, s.logger)
		return
	}

	respondOK(w, r, newConfigView(cfg))
}

type configUpdateRequest struct {
	MinDuration       *uint64   `json:"min_duration"`
	MaxDuration       *uint64   `json:"max_duration"`
	Enabled           *bool     `json:"enabled"`
	FeeRate           *uint64   `json:"fee_rate"`
	DefaultDenom      *string   `json:"default_denom"`
	AllowedDepositors *[]string `json:"allowed_depositors"`
	Owner             *string   `json:"owner"`
}

func (s *Handler) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sender, err := getSender(r)
	if err != nil {
		respondError(w, r, err, http.StatusUnauthorized, s.logger)
		return
	}

	var req configUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("decode config update: %w", err), http.StatusBadRequest, s.logger)
		return
	}

	trc.Tracef(ctx, "config update from %s", sender)

	cfg, err := s.service.UpdateConfig(ctx, sender, auction.ConfigUpdate(req))
	if err != nil {
		respondError(w, r, fmt.Errorf("update config: %w", err), http.StatusInternalServerError, s.logger)
		return
	}

	respondOK(w, r, newConfigView(cfg))
}

//
//
//

type createAuctionRequest struct {
	Name      string `json:"name"`
	StartTime uint64 `json:"start_time"`
	Duration  uint64 `json:"duration"`
	Denom     string `json:"denom"`
	PayToken  string `json:"pay_token"`
	MinPrice  string `json:"min_price"`
}

func (req *createAuctionRequest) validate() error {
	var merr multiError
	merr.addIf(req.Duration == 0, fmt.Errorf("duration missing"))
	merr.addIf(req.Denom == "" && req.PayToken == "", fmt.Errorf("denom or pay token required"))
	merr.addIf(req.Denom != "" && req.PayToken != "", fmt.Errorf("denom and pay token are mutually exclusive"))
	return merr.yield()
}

func (s *Handler) handlePostAuctions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	seller, err := getSender(r)
	if err != nil {
		respondError(w, r, err, http.StatusUnauthorized, s.logger)
		return
	}

	var req createAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("decode create auction request: %w", err), http.StatusBadRequest, s.logger)
		return
	}

	if err := req.validate(); err != nil {
		respondError(w, r, fmt.Errorf("request invalid: %w", err), http.StatusBadRequest, s.logger)
		return
	}

	var minPrice *sdkmath.Uint
	if req.MinPrice != "" {
		v, err := parseAmount(req.MinPrice)
		if err != nil {
			respondError(w, r, fmt.Errorf("min price: %w", err), http.StatusBadRequest, s.logger)
			return
		}
		minPrice = &v
	}

	trc.Tracef(ctx, "seller %s, start %d, duration %d", seller, req.StartTime, req.Duration)

	a, err := s.service.CreateAuction(ctx, seller, auction.CreateParams{
		Name:      req.Name,
		StartTime: req.StartTime,
		Duration:  req.Duration,
		Denom:     req.Denom,
		PayToken:  req.PayToken,
		MinPrice:  minPrice,
	})
	if err != nil {
		respondError(w, r, fmt.Errorf("create auction: %w", err), http.StatusInternalServerError, s.logger)
		return
	}

	respondOK(w, r, newAuctionView(a, s.service.Now()))
}

func (s *Handler) handleGetAuction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := lookupAuctionID(r)
	if err != nil {
		respondError(w, r, err, http.StatusNotFound, s.logger)
		return
	}

	a, err := s.service.Auction(ctx, id)
	if err != nil {
		respondError(w, r, fmt.Errorf("get auction %d: %w", id, err), http.StatusInternalServerError, s.logger)
		return
	}

	if a == nil {
		respondError(w, r, fmt.Errorf("auction %d: %w", id, store.ErrNotFound), http.StatusNotFound, s.logger)
		return
	}

	respondOK(w, r, newAuctionView(a, s.service.Now()))
}

type listRequest struct {
	Status string `json:"status"`
	Page   uint32 `json:"page"`
	Limit  uint32 `json:"limit"`
}

func (req *listRequest) validate() error {
	var merr multiError
	if req.Status != "" {
		_, err := store.ParseStatus(req.Status)
		merr.addIf(err != nil, err)
	}
	merr.addIf(req.Limit > auction.MaxListLimit, fmt.Errorf("limit exceeds %d", auction.MaxListLimit))
	return merr.yield()
}

func (req *listRequest) params() auction.ListParams {
	p := auction.ListParams{Page: req.Page, Limit: req.Limit}
	if status, err := store.ParseStatus(req.Status); err == nil {
		p.Status = &status
	}
	return p
}

// parseListRequest accepts the list filter as a JSON body, form data, or
// a URL query.
func parseListRequest(ctx context.Context, r *http.Request) (listRequest, error) {
	var req listRequest

	readBodyJSON := func() error {
		return json.NewDecoder(r.Body).Decode(&req)
	}

	parseValues := func(values url.Values) error {
		if status := values.Get("status"); status != "" {
			req.Status = status // non-fatal, let `{"status":"ended"}` + `?page=2` => status=ended page=2
		}
		if page, err := strconv.ParseUint(values.Get("page"), 10, 32); err == nil {
			req.Page = uint32(page) // ibid.
		}
		if limit, err := strconv.ParseUint(values.Get("limit"), 10, 32); err == nil {
			req.Limit = uint32(limit) // ibid.
		}
		return nil
	}

	readURLQuery := func() error {
		values, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			return fmt.Errorf("parse query data: %w", err)
		}
		return parseValues(values)
	}

	readFormData := func() error {
		body, err := io.ReadAll(io.LimitReader(r.Body, 10*1024))
		if err != nil {
			return fmt.Errorf("read request body: %w", err)
		}
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return fmt.Errorf("parse form data: %w", err)
		}
		return parseValues(values)
	}

	var (
		requestTypes = r.Header.Values("content-type")
		acceptTypes  = []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"}
		bestType     = getBestMediaType(ctx, requestTypes, acceptTypes...)
	)

	switch {
	case bestType == "application/json":
		if err := readBodyJSON(); err != nil {
			return req, fmt.Errorf("decode JSON list request: %w", err)
		}
		trc.Tracef(ctx, "parsed list request from JSON request body: %+v", req)

	case bestType == "application/x-www-form-urlencoded":
		if err := readFormData(); err != nil {
			return req, fmt.Errorf("decode form list request: %w", err)
		}
		trc.Tracef(ctx, "parsed list request from form data: %+v", req)

	default:
		trc.Tracef(ctx, "request has no content-type, trying a few things...")
		if err := readBodyJSON(); err != nil && !errors.Is(err, io.EOF) {
			trc.Tracef(ctx, "JSON parse failed: %v", err)
		}
		if err := readFormData(); err != nil {
			trc.Tracef(ctx, "form parse failed: %v", err)
		}
		if err := readURLQuery(); err != nil {
			trc.Tracef(ctx, "query parse failed: %v", err)
		}
	}

	if err := req.validate(); err != nil {
		return req, fmt.Errorf("request invalid: %w", err)
	}

	return req, nil
}

func (s *Handler) handleGetAuctions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := parseListRequest(ctx, r)
	if err != nil {
		respondError(w, r, fmt.Errorf("parse list request: %w", err), http.StatusBadRequest, s.logger)
		return
	}

	as, err := s.service.ListAuctions(ctx, req.params())
	if err != nil {
		respondError(w, r, fmt.Errorf("list auctions: %w", err), http.StatusInternalServerError, s.logger)
		return
	}

	now := s.service.Now()
	views := make([]auctionView, len(as))
	for i, a := range as {
		views[i] = newAuctionView(a, now)
	}

	trc.Tracef(ctx, "status %q page %d: %d auction(s)", req.Status, req.Page, len(views))

	respondOK(w, r, listResponse{Auctions: views})
}

//
//
//

type coinRequest struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

type bidRequest struct {
	Bidder string        `json:"bidder"`
	Funds  []coinRequest `json:"funds"`
}

func (req *bidRequest) coins() ([]auction.Coin, error) {
	var (
		merr  multiError
		coins = make([]auction.Coin, 0, len(req.Funds))
	)
	for _, c := range req.Funds {
		amount, err := parseAmount(c.Amount)
		merr.addIf(err != nil, fmt.Errorf("%s: %w", c.Denom, err))
		merr.addIf(c.Denom == "", fmt.Errorf("coin denom missing"))
		coins = append(coins, auction.Coin{Denom: c.Denom, Amount: amount})
	}
	return coins, merr.yield()
}

func (s *Handler) handlePostBid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sender, err := getSender(r)
	if err != nil {
		respondError(w, r, err, http.StatusUnauthorized, s.logger)
		return
	}

	id, err := getAuctionID(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest, s.logger)
		return
	}

	var req bidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("decode bid request: %w", err), http.StatusBadRequest, s.logger)
		return
	}

	coins, err := req.coins()
	if err != nil {
		respondError(w, r, fmt.Errorf("request invalid: %w", err), http.StatusBadRequest, s.logger)
		return
	}

	trc.Tracef(ctx, "auction %d, sender %s, %d coin(s)", id, sender, len(coins))

	bid, err := s.service.BidNative(ctx, auction.NativeBid{
		AuctionID: id,
		Sender:    sender,
		Bidder:    req.Bidder,
		Funds:     coins,
	})
	if err != nil {
		respondError(w, r, fmt.Errorf("bid on auction %d: %w", id, err), http.StatusInternalServerError, s.logger)
		return
	}

	respondOK(w, r, bidResponse{AuctionID: id, Bid: *bid})
}

// receiveRequest is the callback an asset or token contract sends when
// something is transferred to the auction. Exactly one variant is set.
type receiveRequest struct {
	FungibleBid  *receiveFungibleBid  `json:"fungible_bid,omitempty"`
	AssetDeposit *receiveAssetDeposit `json:"asset_deposit,omitempty"`
}

type receiveFungibleBid struct {
	Sender string `json:"sender"`
	Amount string `json:"amount"`
	Msg    struct {
		ID     uint64 `json:"id"`
		Bidder string `json:"bidder"`
	} `json:"msg"`
}

type receiveAssetDeposit struct {
	Sender  string `json:"sender"`
	TokenID string `json:"token_id"`
	Msg     struct {
		ID uint64 `json:"id"`
	} `json:"msg"`
}

func (req *receiveRequest) validate() error {
	var merr multiError
	merr.addIf(req.FungibleBid == nil && req.AssetDeposit == nil, fmt.Errorf("%w: no variant set", ErrInvalidMessage))
	merr.addIf(req.FungibleBid != nil && req.AssetDeposit != nil, fmt.Errorf("%w: more than one variant set", ErrInvalidMessage))
	if b := req.FungibleBid; b != nil {
		merr.addIf(b.Sender == "", fmt.Errorf("fungible bid: sender missing"))
		merr.addIf(b.Amount == "", fmt.Errorf("fungible bid: amount missing"))
	}
	if d := req.AssetDeposit; d != nil {
		merr.addIf(d.Sender == "", fmt.Errorf("asset deposit: sender missing"))
		merr.addIf(d.TokenID == "", fmt.Errorf("asset deposit: token ID missing"))
	}
	return merr.yield()
}

func (s *Handler) handlePostReceive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contract, err := getSender(r)
	if err != nil {
		respondError(w, r, err, http.StatusUnauthorized, s.logger)
		return
	}

	var req receiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("decode receive request: %w", err), http.StatusBadRequest, s.logger)
		return
	}

	if err := req.validate(); err != nil {
		respondError(w, r, fmt.Errorf("request invalid: %w", err), http.StatusBadRequest, s.logger)
		return
	}

	switch {
	case req.FungibleBid != nil:
		fb := req.FungibleBid

		amount, err := parseAmount(fb.Amount)
		if err != nil {
			respondError(w, r, fmt.Errorf("fungible bid amount: %w", err), http.StatusBadRequest, s.logger)
			return
		}

		trc.Tracef(ctx, "fungible bid via %s on auction %d from %s", contract, fb.Msg.ID, fb.Sender)

		bid, err := s.service.BidFungible(ctx, auction.FungibleBid{
			AuctionID: fb.Msg.ID,
			Contract:  contract,
			Sender:    fb.Sender,
			Bidder:    fb.Msg.Bidder,
			Amount:    amount,
		})
		if err != nil {
			respondError(w, r, fmt.Errorf("fungible bid on auction %d: %w", fb.Msg.ID, err), http.StatusInternalServerError, s.logger)
			return
		}

		respondOK(w, r, bidResponse{AuctionID: fb.Msg.ID, Bid: *bid})

	default: // asset deposit
		ad := req.AssetDeposit

		trc.Tracef(ctx, "asset deposit via %s on auction %d, token %s", contract, ad.Msg.ID, ad.TokenID)

		a, err := s.service.DepositAsset(ctx, auction.Deposit{
			AuctionID: ad.Msg.ID,
			Contract:  contract,
			Sender:    ad.Sender,
			TokenID:   ad.TokenID,
		})
		if err != nil {
			respondError(w, r, fmt.Errorf("deposit to auction %d: %w", ad.Msg.ID, err), http.StatusInternalServerError, s.logger)
			return
		}

		respondOK(w, r, newAuctionView(a, s.service.Now()))
	}
}

//
//
//

func (s *Handler) handlePostBlowCandle(w http.ResponseWriter, r *http.Request) {
	s.settle(w, r, "blow candle", func(ctx context.Context, id uint64) (*auction.Receipt, error) {
		return s.service.BlowCandle(ctx, id)
	})
}

func (s *Handler) handlePostFlowRefund(w http.ResponseWriter, r *http.Request) {
	s.settle(w, r, "flow refund", func(ctx context.Context, id uint64) (*auction.Receipt, error) {
		return s.service.FlowRefund(ctx, id)
	})
}

type claimRequest struct {
	Winner string `json:"winner"`
}

func (s *Handler) handlePostClaim(w http.ResponseWriter, r *http.Request) {
	sender, err := getSender(r)
	if err != nil {
		respondError(w, r, err, http.StatusUnauthorized, s.logger)
		return
	}

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, r, fmt.Errorf("decode claim request: %w", err), http.StatusBadRequest, s.logger)
		return
	}

	s.settle(w, r, "winner claim", func(ctx context.Context, id uint64) (*auction.Receipt, error) {
		return s.service.WinnerClaim(ctx, id, sender, req.Winner)
	})
}

func (s *Handler) settle(w http.ResponseWriter, r *http.Request, what string, do func(context.Context, uint64) (*auction.Receipt, error)) {
	ctx := r.Context()

	id, err := getAuctionID(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest, s.logger)
		return
	}

	trc.Tracef(ctx, "%s: auction %d", what, id)

	receipt, err := do(ctx, id)
	if err != nil {
		respondError(w, r, fmt.Errorf("%s on auction %d: %w", what, id, err), http.StatusInternalServerError, s.logger)
		return
	}

	trc.Tracef(ctx, "%s: auction %d settled with %d transfer(s)", what, id, len(receipt.Transfers))

	respondOK(w, r, receiptResponse{
		Auction:   newAuctionView(receipt.Auction, s.service.Now()),
		Transfers: newTransferViews(receipt.Transfers),
	})
}

func (s *Handler) handleGetTransfers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := lookupAuctionID(r)
	if err != nil {
		respondError(w, r, err, http.StatusNotFound, s.logger)
		return
	}

	ts, err := s.service.Transfers(ctx, id)
	if err != nil {
		respondError(w, r, fmt.Errorf("transfers for auction %d: %w", id, err), http.StatusInternalServerError, s.logger)
		return
	}

	respondOK(w, r, transfersResponse{AuctionID: id, Transfers: newTransferViews(ts)})
}

//
//
//

func getSender(r *http.Request) (string, error) {
	sender := strings.TrimSpace(r.Header.Get(SenderHeaderKey))
	if sender == "" {
		return "", fmt.Errorf("%s header: %w", SenderHeaderKey, ErrNoSender)
	}
	return sender, nil
}

// lookupAuctionID is getAuctionID for read paths, where an ID that can't
// name an auction is reported the same way as an auction that doesn't exist.
func lookupAuctionID(r *http.Request) (uint64, error) {
	id, err := getAuctionID(r)
	if err != nil {
		return 0, fmt.Errorf("auction %q: %w", mux.Vars(r)["id"], store.ErrNotFound)
	}
	return id, nil
}

func getAuctionID(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", raw, ErrInvalidAuctionID)
	}
	return id, nil
}

// parseAmount reads a decimal u128 amount. Amounts travel as strings so
// they survive JSON number handling.
func parseAmount(s string) (sdkmath.Uint, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Trim(s, "0123456789") != "" {
		return sdkmath.Uint{}, fmt.Errorf("%q is not a decimal amount: %w", s, ErrInvalidAmount)
	}
	u, err := sdkmath.ParseUint(s)
	if err != nil {
		return sdkmath.Uint{}, fmt.Errorf("%q: %w", s, ErrInvalidAmount)
	}
	if u.GT(auction.MaxAmount) {
		return sdkmath.Uint{}, fmt.Errorf("%q exceeds %s: %w", s, auction.MaxAmount, ErrInvalidAmount)
	}
	return u, nil
}

func getBestMediaType(ctx context.Context, inputValues []string, prioritizedValues ...string) string {
	if len(inputValues) <= 0 {
		return ""
	}

	index := map[string]struct{}{}
	slice := []string{}
	for _, v := range inputValues {
		mediaType, _, err := mime.ParseMediaType(v)
		if err != nil {
			trc.Tracef(ctx, "warning: request content-type %q: %v", v, err)
			continue
		}
		index[mediaType] = struct{}{}
		slice = append(slice, mediaType)
	}

	for _, v := range prioritizedValues {
		mediaType, _, err := mime.ParseMediaType(v)
		if err != nil {
			trc.Errorf(ctx, "programmer error: invalid content type %q", v)
			continue
		}
		if _, ok := index[mediaType]; ok {
			return mediaType
		}
	}

	if len(slice) <= 0 {
		return ""
	}

	return slice[0]
}

type multiError struct {
	merr *multierror.Error
}

func (m *multiError) addIf(b bool, err error) {
	if !b {
		return
	}

	if m.merr == nil {
		m.merr = &multierror.Error{ErrorFormat: joinErrorStrings}
	}

	m.merr = multierror.Append(m.merr, err)
}

func (m *multiError) yield() error {
	if m.merr == nil {
		return nil
	}

	return m.merr.ErrorOrNil()
}

func joinErrorStrings(errs []error) string {
	strs := make([]string, len(errs))
	for i := range errs {
		strs[i] = errs[i].Error()
	}
	return strings.Join(strs, "; ")
}
