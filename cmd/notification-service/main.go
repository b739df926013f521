package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iyhunko/product-manager/internal/config"
	"github.com/iyhunko/product-manager/internal/logger"
	"github.com/iyhunko/product-manager/internal/metrics"
	"github.com/iyhunko/product-manager/internal/rabbitmq"
	"github.com/iyhunko/product-manager/internal/service"
	sqspkg "github.com/iyhunko/product-manager/internal/sqs"
)

func main() {
	conf, err := config.LoadNotifierFromEnv()
	handleErr("loading config", err)

	logger.InitJSONLogger(conf.DebugMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifications := service.NewNotificationService(slog.Default())
	metricsServer := metrics.StartMetricsServer(conf)

	slog.Info("Notification service started. Listening for messages...", slog.String("broker", conf.EventsBroker))

	switch conf.EventsBroker {
	case config.BrokerSQS:
		sqsClient, err := sqspkg.NewClient(ctx, conf.AWS)
		handleErr("creating SQS client", err)
		err = sqspkg.NewConsumer(sqsClient, conf.AWS.SQSQueueURL, notifications.HandleProductEvent).Start(ctx)
		logConsumerExit(err)
	case config.BrokerRabbitMQ:
		client, err := rabbitmq.NewClient(conf.RabbitMQ)
		handleErr("connecting to RabbitMQ", err)
		err = client.Consume(ctx, notifications.HandleProductEvent)
		logConsumerExit(err)
		if err := client.Close(); err != nil {
			slog.Error("Failed to close RabbitMQ client", slog.Any("err", err))
		}
	}

	slog.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Metrics server shutdown failed", slog.Any("err", err))
	}
}

func logConsumerExit(err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Consumer error", slog.Any("err", err))
	}
}

func handleErr(msg string, err error) {
	if err != nil {
		slog.Error("error while "+msg, slog.Any("err", err))
		os.Exit(1)
	}
}
