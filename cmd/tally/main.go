package main

import (
	"context"
	"net/http"
	"time"

	"tally/internal/amqp"
	"tally/internal/cli"
	apphttp "tally/internal/http"
	"tally/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// AMQP is optional; without it entries stay local until the worker's
	// pending sweep picks them up.
	var amqpClient *amqp.Client
	if c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue); err != nil {
		logger.Warn("AMQP unavailable, sync messages disabled", "error", err)
	} else {
		amqpClient = c
		defer amqpClient.Close()
	}

	budgetSvc := services.NewBudgetService(repo, amqpClient)
	habitSvc := services.NewHabitService(repo, amqpClient)
	importSvc := services.NewImportService(budgetSvc)

	srv := apphttp.NewServer(":"+cfg.Port, budgetSvc, habitSvc, importSvc)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting tally server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		return
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
