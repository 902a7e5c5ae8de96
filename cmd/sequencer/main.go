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

	"go.uber.org/zap"

	"github.com/streamchannel/sequencer/internal/api"
	"github.com/streamchannel/sequencer/internal/chain"
	"github.com/streamchannel/sequencer/internal/config"
	"github.com/streamchannel/sequencer/internal/keyring"
	"github.com/streamchannel/sequencer/internal/state"
	"github.com/streamchannel/sequencer/internal/store/postgres"
)

const sweepInterval = 10 * time.Minute

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Postgres store ────────────────────────────────────────────────────────
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Store.DatabaseURL,
		MaxConns: cfg.Store.MaxConns,
	})
	if err != nil {
		log.Fatal("postgres connect failed", zap.Error(err))
	}
	defer pgClient.Close()
	store := postgres.NewChannelStore(pgClient)

	// ── Signing key ───────────────────────────────────────────────────────────
	kr, err := keyring.Load(ctx, keyring.Config{
		PlaintextHex:       cfg.Keyring.PrivateKeyHex,
		KMSCiphertextHex:   cfg.Keyring.KMSKeyCiphertext,
		AWSRegion:          cfg.Keyring.AWSRegion,
		LocalStackEndpoint: cfg.Keyring.LocalStackEndpoint,
	})
	if err != nil {
		log.Fatal("keyring load failed", zap.Error(err))
	}

	// ── Chain client ──────────────────────────────────────────────────────────
	onchain, err := chain.NewClient(ctx, chain.Config{
		RPCURL:          cfg.Chain.RPCURL,
		ContractAddress: cfg.Chain.ContractAddress,
		ChainID:         cfg.Chain.ChainID,
		PrivateKeyHex:   cfg.Keyring.PrivateKeyHex,
	})
	if err != nil {
		log.Fatal("chain client init failed", zap.Error(err))
	}
	if err := onchain.VerifyIdentity(ctx); err != nil {
		log.Fatal("on-chain identity check failed", zap.Error(err),
			zap.String("configured_address", kr.Address().Hex()))
	}

	// ── State manager ─────────────────────────────────────────────────────────
	manager := state.NewManager(store, kr, onchain.ChainID(), onchain.ContractAddress(), log)
	if err := manager.Bootstrap(ctx); err != nil {
		log.Fatal("state bootstrap failed", zap.Error(err))
	}

	sweeper := state.NewSweeper(manager, store, sweepInterval, log)
	go sweeper.Run(ctx)

	// ── HTTP server ───────────────────────────────────────────────────────────
	engine := api.NewEngine(manager, onchain, pgClient.Pool(), log)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: engine,
	}

	go func() {
		log.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("shutdown complete")
}
