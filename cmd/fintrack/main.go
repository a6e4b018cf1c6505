package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(slog.Default())
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)
	loc := cli.MustLocation(logger.Logger, cfg)

	repo := cli.InitSQLite(logger.Logger, cfg.SQLiteDBPath)
	defer repo.Close()
	cli.SeedCards(context.Background(), logger.Logger, repo, cfg.CardsSeedFile)

	// A nil *amqp.Client must not become a non-nil publisher interface.
	var publisher services.EventPublisher
	if amqpClient := cli.ConnectAMQP(logger.Logger, cfg); amqpClient != nil {
		publisher = amqpClient
		defer amqpClient.Close()
	}

	cards := cache.NewLRUCache[core.Card](cfg.CardCacheSize, cfg.CardCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(cards)
	cacheManager.StartCleanup(cfg.CardCacheTTL)

	svc := services.NewTransactionService(repo, publisher, cards)
	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Location: loc,
		Ready:    repo.Ping,
		Logger:   logger,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
	})

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"timezone", loc.String(),
		"events", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
