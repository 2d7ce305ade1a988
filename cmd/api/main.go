package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgermatch/dedup-backend/internal/api"
	"github.com/ledgermatch/dedup-backend/internal/application/service"
	"github.com/ledgermatch/dedup-backend/internal/infrastructure/config"
	"github.com/ledgermatch/dedup-backend/internal/infrastructure/logging"
	"github.com/ledgermatch/dedup-backend/internal/infrastructure/storage"
	"github.com/ledgermatch/dedup-backend/internal/verifier"
)

func main() {
	cfg := config.LoadOrEnv()
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", "path", cfg.Storage.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Without an API key the semantic tier is disabled and runs are
	// deterministic only.
	var v verifier.Verifier
	if cfg.OpenAI.APIKey != "" {
		v = verifier.NewOpenAIVerifier(verifier.NewRealChatClient(cfg.OpenAI.APIKey), cfg.OpenAI.Model)
	} else {
		logger.Warn("no OpenAI API key configured, semantic verification disabled")
	}

	dedupService := service.NewDedupService(cfg, store, v, logger)

	serverCfg := api.DefaultConfig()
	if cfg.Server.Port > 0 {
		serverCfg.Port = cfg.Server.Port
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		serverCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	}

	server := api.NewServer(serverCfg, dedupService, logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
