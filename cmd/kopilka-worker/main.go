// Command kopilka-worker consumes the expense event queue and audits every
// event to the log. It runs until interrupted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kopilka/internal/amqp"
	"kopilka/internal/config"
	"kopilka/internal/logging"
	"kopilka/internal/services"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		slog.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auditor := services.NewEventAuditor()

	slog.Info("Starting expense event worker", "queue", cfg.AMQPQueue)
	err = client.ConsumeExpenseEvents(ctx, auditor.Handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Event consumption failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Worker stopped", "handled", auditor.Counts())
}
