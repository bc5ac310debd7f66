package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"candle/api"
	"candle/auction"
	"candle/build"
	"candle/debug"
	"candle/metrics"
	"candle/randomness"
	"candle/store"
	"candle/store/memstore"
	"candle/store/pgstore"
	"candle/trc"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v3"
)

func main() {
	err := exe(os.Stdout, os.Stderr, os.Args[1:])
	switch {
	case err == nil:
		os.Exit(0)
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	case isSignalError(err):
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func exe(stdout, stderr io.Writer, args []string) error {
	fs := flag.NewFlagSet("candled", flag.ContinueOnError)
	var (
		ctx                  = context.Background()
		apiAddr              = fs.String("api-addr", ":4411", "public API HTTP server address")
		debugAddr            = fs.String("debug-addr", ":4412", "private debug HTTP server address")
		storeConnStr         = fs.String("store-conn-str", "mem://store", "store connection string")
		randomnessURLs       = repeatedString(fs, "randomness-url", "randomness beacon base URL, tried in order (repeatable)")
		randomnessTimeout    = fs.Duration("randomness-timeout", 5*time.Second, "timeout for a single beacon request")
		randomnessCache      = fs.Int("randomness-cache-size", 100, "number of beacon rounds to keep in memory")
		settlementMode       = fs.String("settlement-mode", "candle", "candle, claim")
		bech32Prefix         = fs.String("bech32-prefix", "", "if set, addresses must be bech32 with this prefix")
		storeMetricsInterval = fs.Duration("store-metrics-interval", 1*time.Minute, "how often to refresh store gauges")
		owner                = fs.String("owner", "", "config owner, used when the store has no config yet")
		minDuration          = fs.Uint64("min-duration", 60, "shortest auction window in seconds, used when the store has no config yet")
		maxDuration          = fs.Uint64("max-duration", 7*24*60*60, "longest auction window in seconds, used when the store has no config yet")
		enabled              = fs.Bool("enabled", true, "accept auction operations (create, deposit, bid, settle), used when the store has no config yet")
		feeRate              = fs.Uint64("fee-rate", 0, "recorded fee rate, not applied, used when the store has no config yet")
		defaultDenom         = fs.String("default-denom", "", "default native denom, used when the store has no config yet")
		allowedDepositors    = repeatedString(fs, "allowed-depositor", "asset or token contract allowed to deposit (repeatable), used when the store has no config yet")
		version              = fs.Bool("version", false, "print version information and exit")
		logLevel             = fs.String("log-level", "info", "debug, info, warn, error")
		_                    = fs.String("config", "", "config file")
	)
	if err := ff.Parse(fs, args,
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix("CANDLE"),
	); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	if *version {
		fmt.Fprintf(stdout, "candled version %s date %s\n", build.Version, build.Date)
		return nil
	}

	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = level.NewFilter(logger, level.Allow(level.ParseDefault(*logLevel, level.InfoValue())))

		level.Info(logger).Log("build_version", build.Version, "build_date", build.Date)
	}

	mode, err := auction.ParseSettlementMode(*settlementMode)
	if err != nil {
		return fmt.Errorf("-settlement-mode: %w", err)
	}

	level.Debug(logger).Log("msg", "creating store")

	var (
		st        store.Store
		storeKind string
	)
	{
		switch {
		case strings.HasPrefix(*storeConnStr, "postgres"):
			storeKind = "postgres"
			level.Info(logger).Log("store", "postgres")
			s, err := pgstore.NewStore(ctx, *storeConnStr, log.With(logger, "module", "store"))
			if err != nil {
				return fmt.Errorf("create Postgres store: %w", err)
			}
			defer func() {
				level.Debug(logger).Log("msg", "closing Postgres store")
				if err := s.Close(); err != nil {
					level.Error(logger).Log("msg", "close Postgres store failed", "err", err)
				}
			}()
			st = s

		default:
			storeKind = "memory"
			level.Warn(logger).Log("store", "in-memory")
			st = memstore.NewStore()
		}
	}

	level.Debug(logger).Log("msg", "creating randomness provider")

	var provider randomness.Provider
	{
		urls := randomnessURLs.get()
		if len(urls) <= 0 {
			return fmt.Errorf("at least one -randomness-url is required")
		}
		p, err := randomness.NewHTTPProvider(&http.Client{Timeout: *randomnessTimeout}, urls...)
		if err != nil {
			return fmt.Errorf("create randomness provider: %w", err)
		}
		provider = randomness.WithRingCache(p, *randomnessCache)
		level.Info(logger).Log("randomness_urls", strings.Join(urls, ","), "cache_size", *randomnessCache)
	}

	var service auction.Service
	{
		options := []auction.Option{auction.WithSettlementMode(mode)}
		if *bech32Prefix != "" {
			options = append(options, auction.WithAddressValidator(auction.Bech32Addresses(*bech32Prefix)))
		}
		service = auction.NewCoreService(st, provider, log.With(logger, "module", "auction"), options...)
		metrics.SetEngineInfo(string(mode), storeKind, *bech32Prefix)
		level.Info(logger).Log("settlement_mode", mode, "bech32_prefix", *bech32Prefix)
	}

	level.Debug(logger).Log("msg", "loading config")

	{
		cfg, err := service.Config(ctx)
		switch {
		case errors.Is(err, auction.ErrNotInstantiated):
			if *owner == "" {
				return fmt.Errorf("store has no config, -owner is required to instantiate")
			}
			cfg, err = service.Instantiate(ctx, *owner, auction.InstantiateParams{
				MinDuration:       *minDuration,
				MaxDuration:       *maxDuration,
				Enabled:           *enabled,
				FeeRate:           *feeRate,
				DefaultDenom:      *defaultDenom,
				AllowedDepositors: allowedDepositors.get(),
				RandomnessSource:  strings.Join(randomnessURLs.get(), ","),
			})
			if err != nil {
				return fmt.Errorf("instantiate: %w", err)
			}
			level.Info(logger).Log("msg", "instantiated config from flags", "owner", cfg.Owner)
		case err != nil:
			return fmt.Errorf("load config: %w", err)
		default:
			level.Info(logger).Log("msg", "using stored config", "owner", cfg.Owner, "auction_counter", cfg.AuctionCounter, "enabled", cfg.Enabled)
		}
	}

	level.Debug(logger).Log("msg", "starting up")

	var g run.Group

	{
		logger := log.With(logger, "module", "api")
		apiHandler := api.NewHandler(service, logger)
		server := &http.Server{Handler: apiHandler, Addr: *apiAddr}
		g.Add(func() error {
			level.Info(logger).Log("api_addr", *apiAddr)
			return server.ListenAndServe()
		}, func(error) {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()
			server.Shutdown(ctx)
		})
	}

	{
		logger := log.With(logger, "module", "debug")
		debugHandler := debug.NewHandler()
		server := &http.Server{Handler: debugHandler, Addr: *debugAddr}
		g.Add(func() error {
			level.Info(logger).Log("debug_addr", *debugAddr)
			return server.ListenAndServe()
		}, func(error) {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()
			server.Shutdown(ctx)
		})
	}

	{
		logger := log.With(logger, "module", "store_metrics")
		ctx, cancel := context.WithCancel(ctx)
		statusOf := func(a *store.Auction) store.Status { return auction.StatusOf(a, service.Now()) }
		g.Add(func() error {
			level.Info(logger).Log("interval", *storeMetricsInterval)
			ticker := time.NewTicker(*storeMetricsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					ctx, finish := trc.Create(ctx, "update store metrics")
					if err := store.UpdateMetrics(ctx, st, statusOf); err != nil {
						trc.Errorf(ctx, "failed: %v", err)
						level.Error(logger).Log("error", err)
					}
					finish()
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}, func(error) {
			cancel()
		})
	}

	{
		g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))
	}

	level.Debug(logger).Log("msg", "running")

	return g.Run()
}

func isSignalError(err error) bool {
	var (
		sigErrVal run.SignalError
		sigErrPtr *run.SignalError
	)
	return errors.As(err, &sigErrVal) || errors.As(err, &sigErrPtr)
}

func repeatedString(fs *flag.FlagSet, name string, usage string) *stringSet {
	var ss stringSet
	fs.Var(&ss, name, usage)
	return &ss
}

// stringSet keeps the first occurrence of each value, in order.
type stringSet struct {
	s []string
	m map[string]struct{}
}

func (s *stringSet) Set(v string) error {
	if s.m == nil {
		s.m = map[string]struct{}{}
	}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		if _, ok := s.m[part]; !ok {
			s.m[part] = struct{}{}
			s.s = append(s.s, part)
		}
	}
	return nil
}

func (s *stringSet) String() string {
	return strings.Join(s.s, " ")
}

func (s *stringSet) get() []string {
	return s.s
}
