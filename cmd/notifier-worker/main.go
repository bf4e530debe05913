package main

import (
	"context"
	"errors"
	"os"
	"time"

	"contas/internal/amqp"
	"contas/internal/cli"
	"contas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting notifier-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for notifier-worker")
		os.Exit(1)
	}

	notifier := cli.InitNotifier(logger, cfg)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reminderWorker := worker.NewReminderWorker(notifier)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	go func() {
		if err := amqpClient.ConsumeDueReminders(ctx, reminderWorker.HandleDueReminder); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
				os.Exit(1)
			}
		}
	}()

	logger.Info("Consuming due reminders", "queue", cfg.AMQPQueue)
	cli.WaitForShutdown(ctx, done)
	logger.Info("notifier-worker stopped")
}
