package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/cli"
	"tally/internal/config"
	applog "tally/internal/log"
	"tally/internal/remote"
	gremote "tally/internal/remote/google"
	mremote "tally/internal/remote/memory"
	"tally/internal/services"
	"tally/internal/worker"
)

// pendingSweepInterval is the backup sweep for sync messages that never
// arrived over AMQP.
const pendingSweepInterval = 10 * time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger().WithComponent(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting tally-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	remoteStore := buildRemoteStore(logger, cfg)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		return
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, remoteStore, cfg.SyncBatchSize)
	budgetSvc := services.NewBudgetService(repo, amqpClient)
	processor := services.NewRecurringProcessor(repo, budgetSvc)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Catch up on rows whose messages were lost before this run.
	if err := syncWorker.ProcessPending(ctx); err != nil {
		logger.Error("Startup pending sweep failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeChanges(gctx, func(msg *amqp.ChangeMessage) error {
			return syncWorker.HandleChangeMessage(gctx, msg)
		})
		if err == context.Canceled {
			return nil
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.RecurringInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if _, err := processor.ProcessDue(gctx, time.Now()); err != nil {
					logger.Error("Recurring processing failed", "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(pendingSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := syncWorker.ProcessPending(gctx); err != nil {
					logger.Error("Pending sweep failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		// A consumer or ticker died on its own; don't linger as a dead
		// process waiting for a signal.
		logger.Error("Worker stopped with error", "error", err)
		repo.Close()
		amqpClient.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

// buildRemoteStore picks the configured remote mirror. Without a
// spreadsheet the worker mirrors into memory, which keeps the sync path
// exercised in development.
func buildRemoteStore(logger *applog.Logger, cfg *config.Config) remote.Store {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled - using in-memory remote store")
		return mremote.New()
	}

	client, err := gremote.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client, falling back to memory", "error", err)
		return mremote.New()
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client
}
