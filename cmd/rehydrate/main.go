package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/HAAN6892/real-estate-monitor/internal/config"
	"github.com/HAAN6892/real-estate-monitor/internal/env"
	"github.com/HAAN6892/real-estate-monitor/internal/events"
	"github.com/HAAN6892/real-estate-monitor/internal/hydrator"
	"github.com/HAAN6892/real-estate-monitor/internal/logger"
	"github.com/HAAN6892/real-estate-monitor/internal/notify"
	"github.com/HAAN6892/real-estate-monitor/internal/resolver"
	"github.com/HAAN6892/real-estate-monitor/internal/store"
	"github.com/HAAN6892/real-estate-monitor/internal/wishlist"
	"github.com/HAAN6892/real-estate-monitor/naver"
)

func main() {
	env.Load(env.List("ENV_FILES")...)
	dsn := env.Must("PG_DSN")

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

	st, err := store.Open(dsn)
	if err != nil {
		log.Fatal("store open error", zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := st.Ping(ctx); err != nil {
		cancel()
		log.Fatal("postgres ping error", zap.Error(err))
	}
	if err := st.Migrate(ctx); err != nil {
		cancel()
		log.Fatal("postgres migrate error", zap.Error(err))
	}
	cancel()

	opts := cfg.ClientOptions()
	opts.Logger = log.Named("naver")
	client := naver.NewClient(opts)
	client.SetLeveledLogger(logger.Retryable(log.Named("http")))
	res := resolver.New(client, resolver.Options{
		MaxPages: cfg.Provider.MaxPages,
		Pause:    cfg.Provider.CallPause,
		Logger:   log.Named("resolver"),
	})

	pub := events.NewInMemory(256)
	reg := wishlist.NewRegistrar(st, res, pub, log.Named("wishlist"))

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	notifier := &notify.Notifier{Pub: pub, Store: st, Log: log.Named("notify")}
	notifyCtx, stopNotify := context.WithCancel(rootCtx)
	defer stopNotify()
	notifyDone := make(chan struct{})
	go func() {
		defer close(notifyDone)
		notifier.Run(notifyCtx)
	}()

	job := &hydrator.RehydrateJob{
		Wishlist: reg,
		Logger:   log.Named("rehydrate"),
		Config: hydrator.RehydrateConfig{
			Interval:  cfg.Rehydrate.Interval,
			Pause:     cfg.Rehydrate.Pause,
			BatchSize: cfg.Rehydrate.BatchSize,
		},
	}

	if cfg.Rehydrate.RunOnce {
		n, err := job.RunOnce(rootCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal("rehydrate run failed", zap.Error(err))
		}
		stopNotify()
		<-notifyDone
		sent := notifier.Drain(context.Background())
		log.Info("rehydrate run finished", zap.Int("resolved", n), zap.Int("cards", sent))
		return
	}

	err = job.Run(rootCtx)
	stopNotify()
	<-notifyDone
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("rehydrate job stopped with error", zap.Error(err))
	}
}
