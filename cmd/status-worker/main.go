package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(slog.Default())
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker)
	loc := cli.MustLocation(logger.Logger, cfg)

	logger.Info("Starting status-worker", "interval", cfg.StatusInterval, "timezone", loc.String())

	repo := cli.InitSQLite(logger.Logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient := cli.ConnectAMQP(logger.Logger, cfg)
	var publisher services.EventPublisher
	if amqpClient != nil {
		publisher = amqpClient
		defer amqpClient.Close()
	}

	processor := services.NewStatusProcessor(repo, publisher)
	runner := services.NewStatusRunner(processor, services.StatusRunnerConfig{
		Interval: cfg.StatusInterval,
		Location: loc,
	})

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := runner.Stop(ctx); err != nil {
			logger.Error("Status runner stop error", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := runner.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		return nil
	})

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeTransactionEvents(gctx, processor.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping event consumption - AMQP not configured")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Status worker failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Status worker stopped")
}
