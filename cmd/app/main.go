// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"creator-checkout/internal/config"
	"creator-checkout/internal/domain/ports/adapter"
	"creator-checkout/internal/domain/ports/repository"
	"creator-checkout/internal/infra/adapters/backend"
	"creator-checkout/internal/infra/api"
	pg "creator-checkout/internal/infra/db/postgres"
	"creator-checkout/internal/infra/logging"
	"creator-checkout/internal/infra/metrics"
	red "creator-checkout/internal/infra/redis"
	"creator-checkout/internal/infra/sched"
	"creator-checkout/internal/infra/store"
	"creator-checkout/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted keys)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Client-state store ----
	var (
		kv      repository.KeyValueStore
		purger  sched.Purger
		locker  adapter.Locker
		limiter api.Limiter
	)

	var redisClient red.RedisClient
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer rc.Close()
		redisClient = rc
		locker = red.NewLocker(rc)
		limiter = red.NewRateLimiter(rc)
	}

	switch cfg.Store.Driver {
	case "redis":
		kv = red.NewKVStore(redisClient, "checkout:")
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		pgKV := pg.NewKVStore(pool)
		kv, purger = pgKV, pgKV
	default:
		memKV := store.NewMemoryKV()
		kv, purger = memKV, memKV
		logger.Warn().Msg("client state is kept in memory and lost on restart")
	}

	// Neither Postgres nor the memory store expires entries on its own.
	if purger != nil {
		janitor := sched.NewStateJanitor(time.Hour, purger, logger)
		go func() { _ = janitor.Run(ctx) }()
	}
	logger.Info().Str("driver", cfg.Store.Driver).Bool("distributed_lock", locker != nil).Msg("client-state store ready")

	ledger := store.NewLedger(kv, logger)
	intents := store.NewIntents(kv, cfg.Store.IntentTTL, logger)

	// ---- Backend ----
	be := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)

	// ---- Use cases ----
	provisionUC := usecase.NewProvisioningUseCase(intents, be, logger)
	confirmUC := usecase.NewConfirmationUseCase(ledger, be, provisionUC, usecase.ConfirmationOptions{
		Locker:         locker,
		ConfirmTimeout: cfg.Payment.ConfirmTimeout,
		LockTTL:        cfg.Payment.LockTTL,
		Dev:            cfg.Runtime.Dev,
	}, logger)
	checkoutUC := usecase.NewCheckoutUseCase(intents, usecase.CheckoutOptions{
		ClientKey:  cfg.Payment.ClientKey,
		SuccessURL: cfg.CallbackURL(cfg.Payment.SuccessPath),
		FailURL:    cfg.CallbackURL(cfg.Payment.FailPath),
	}, logger)

	// ---- HTTP ----
	scopes := api.NewScopeManager(cfg.Session.Secret, cfg.Session.CookieName, cfg.Session.CookieDomain, cfg.Session.SecureCookie, cfg.Session.TTL)
	srv := api.NewServer(confirmUC, checkoutUC, be, scopes, limiter, api.Options{
		SuccessPath:    cfg.Payment.SuccessPath,
		FailPath:       cfg.Payment.FailPath,
		HomeURL:        cfg.Server.HomeURL,
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      cfg.Server.RateLimit,
		RateWindow:     cfg.Server.RateWindow,
		RateKey:        red.ScopeRouteKey,
	}, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	waitForShutdown(ctx, logger)
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}

func waitForShutdown(ctx context.Context, logger *zerolog.Logger) {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
}
