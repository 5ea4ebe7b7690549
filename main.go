package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/HAAN6892/real-estate-monitor/http"
	httpv1 "github.com/HAAN6892/real-estate-monitor/http/v1"
	"github.com/HAAN6892/real-estate-monitor/internal/config"
	"github.com/HAAN6892/real-estate-monitor/internal/env"
	"github.com/HAAN6892/real-estate-monitor/internal/events"
	"github.com/HAAN6892/real-estate-monitor/internal/hydrator"
	"github.com/HAAN6892/real-estate-monitor/internal/logger"
	"github.com/HAAN6892/real-estate-monitor/internal/notify"
	"github.com/HAAN6892/real-estate-monitor/internal/redisx"
	"github.com/HAAN6892/real-estate-monitor/internal/refresh"
	"github.com/HAAN6892/real-estate-monitor/internal/resolver"
	"github.com/HAAN6892/real-estate-monitor/internal/store"
	"github.com/HAAN6892/real-estate-monitor/internal/wishlist"
	"github.com/HAAN6892/real-estate-monitor/naver"
)

func main() {
	env.Load(env.List("ENV_FILES")...)
	cfg, err := config.Load(env.Get("CONFIG_PATH", "config.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("real-estate-monitor stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := naver.NewClient(withLogger(cfg.ClientOptions(), log))
	client.SetLeveledLogger(logger.Retryable(log.Named("http")))
	res := resolver.New(client, resolver.Options{
		MaxPages: cfg.Provider.MaxPages,
		Pause:    cfg.Provider.CallPause,
		Logger:   log.Named("resolver"),
	})

	items, closeStore, err := openWishlistStore(ctx, log)
	if err != nil {
		return err
	}
	defer closeStore()

	pub := events.NewInMemory(256)
	reg := wishlist.NewRegistrar(items, res, pub, log.Named("wishlist"))
	hyd := &hydrator.Hydrator{Registrar: reg}

	resolveDeps := httpv1.ResolveDeps{
		Resolver:    res,
		Hydrator:    hyd,
		Logger:      log.Named("resolve"),
		CacheTTL:    cfg.Cache.TTL,
		StaleAfter:  cfg.Cache.StaleAfter,
		DegradedTTL: cfg.Cache.DegradedTTL,
		LockTTL:     cfg.Cache.LockTTL,
	}
	if addr := env.Get("REDIS_ADDR", ""); addr != "" {
		rdb := redisx.New(addr, env.Get("REDIS_PASSWORD", ""), env.GetInt("REDIS_DB", 0))
		defer func() { _ = rdb.Close() }()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn("redis unavailable; resolve cache disabled", zap.String("addr", addr), zap.Error(err))
		} else {
			resolveDeps.Cache = rdb
		}
	}
	refresher := refresh.New(64, 1, 0, func(ctx context.Context, j refresh.Job) {
		httpv1.Refresh(ctx, resolveDeps, naver.ListingReference{ListingID: j.ListingID, ComplexID: j.ComplexID, SourceURL: j.URL})
	})
	resolveDeps.Refetch = func(ref naver.ListingReference) {
		refresher.Enqueue(refresh.Job{ListingID: ref.ListingID, ComplexID: ref.ComplexID, URL: ref.SourceURL})
	}

	router := BuildRouter(RouterDeps{
		Wishlist:      httpapi.WishlistDeps{Registrar: reg, Logger: log.Named("wishlist")},
		Listings:      httpapi.ListingsDeps{Provider: client, MaxPages: cfg.Provider.MaxPages, Logger: log.Named("complexes")},
		Resolve:       resolveDeps,
		Logger:        log.Named("access"),
		RatePerMinute: cfg.Server.RatePerMinute,
	})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// a full resolution cascade with courtesy pauses can take a minute
		WriteTimeout: 3 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("real-estate-monitor listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		(&notify.Notifier{Pub: pub, Store: items, Log: log.Named("notify")}).Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func withLogger(opts naver.Options, log *zap.Logger) naver.Options {
	opts.Logger = log.Named("naver")
	return opts
}

// openWishlistStore uses PostgreSQL when PG_DSN is set and process memory
// otherwise.
func openWishlistStore(ctx context.Context, log *zap.Logger) (wishlist.Store, func(), error) {
	dsn := env.Get("PG_DSN", "")
	if dsn == "" {
		log.Warn("PG_DSN not set; wishlist kept in memory")
		return wishlist.NewMemoryStore(), func() {}, nil
	}
	st, err := store.Open(dsn)
	if err != nil {
		return nil, nil, err
	}
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := st.Ping(initCtx); err != nil {
		_ = st.Close()
		return nil, nil, eris.Wrap(err, "postgres ping")
	}
	if err := st.Migrate(initCtx); err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return st, func() { _ = st.Close() }, nil
}
