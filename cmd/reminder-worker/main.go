package main

import (
	"context"
	"os"
	"time"

	"contas/internal/amqp"
	"contas/internal/cli"
	"contas/internal/notify"
	"contas/internal/ports"
	"contas/internal/services"
	"contas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting reminder-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitBackend(context.Background(), logger, cfg)
	defer store.Close()

	checker, err := services.GetDuenessChecker(cfg.ReminderWindow)
	if err != nil {
		logger.Error("Invalid reminder window", "error", err)
		os.Exit(1)
	}

	// Without a broker, reminders go straight to the notifier
	var publisher ports.DueReminderPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP client initialized - reminders will be delivered by notifier-worker")
	} else {
		publisher = notify.NewDirectPublisher(cli.InitNotifier(logger, cfg))
		logger.Info("AMQP disabled - reminders will be delivered in-process")
	}

	bills := services.NewBillService(store.Backend)
	loc := cfg.Location()
	processor := services.NewReminderProcessor(bills, publisher, checker, loc)

	logger.Info("Reminder processor configured",
		"hours", cfg.ReminderHours,
		"timezone", loc.String(),
		"window", cfg.ReminderWindow)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	run := func(ctx context.Context, now time.Time) {
		count, err := processor.ProcessDue(ctx, now)
		if err != nil {
			logger.Error("Reminder processing failed", "error", err)
			return
		}
		logger.Info("Reminder processing complete", "reminders_sent", count)
	}

	logger.Info("Running initial reminder processing...")
	run(ctx, time.Now())

	go worker.RunAtHours(ctx, cfg.ReminderHours, loc, run)

	cli.WaitForShutdown(ctx, done)
	logger.Info("reminder-worker stopped")
}
