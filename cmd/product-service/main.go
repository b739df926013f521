package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/product-manager/internal/config"
	httpAPI "github.com/iyhunko/product-manager/internal/http"
	"github.com/iyhunko/product-manager/internal/http/controller"
	"github.com/iyhunko/product-manager/internal/logger"
	"github.com/iyhunko/product-manager/internal/metrics"
	"github.com/iyhunko/product-manager/internal/rabbitmq"
	"github.com/iyhunko/product-manager/internal/repository/sql"
	"github.com/iyhunko/product-manager/internal/service"
	sqspkg "github.com/iyhunko/product-manager/internal/sqs"
)

const shutdownTimeout = 10 * time.Second

func main() {
	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	logger.InitJSONLogger(conf.DebugMode)
	if !conf.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.StartDB(ctx, conf.Database)
	handleErr("starting database", err)
	defer db.Close()

	publisher, closePublisher, err := newEventPublisher(ctx, conf)
	handleErr("connecting to events broker", err)
	defer closePublisher()

	productRepository := sql.NewProductRepository(db)
	productService := service.NewProductService(productRepository, publisher)

	ctr := controller.New(db)
	productCtr := controller.NewProductController(productService)
	engine := httpAPI.InitRouter(conf, gin.New(), ctr, productCtr)

	httpServer := &http.Server{
		Addr:              ":" + conf.HTTPServer.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", slog.String("port", conf.HTTPServer.Port), slog.String("base_path", conf.HTTPServer.BasePath))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handleErr("listening to HTTP requests", err)
		}
	}()

	metricsServer := metrics.StartMetricsServer(conf)

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", slog.Any("err", err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Metrics server shutdown failed", slog.Any("err", err))
	}
}

// newEventPublisher connects to the broker selected by EVENTS_BROKER.
// With no broker configured it returns a nil publisher and events are not sent.
func newEventPublisher(ctx context.Context, conf *config.Config) (service.EventPublisher, func(), error) {
	switch conf.EventsBroker {
	case config.BrokerSQS:
		sqsClient, err := sqspkg.NewClient(ctx, conf.AWS)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Publishing product events to SQS", slog.String("queueURL", conf.AWS.SQSQueueURL))
		return sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL), func() {}, nil
	case config.BrokerRabbitMQ:
		client, err := rabbitmq.NewClient(conf.RabbitMQ)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {
			if err := client.Close(); err != nil {
				slog.Error("Failed to close RabbitMQ client", slog.Any("err", err))
			}
		}, nil
	default:
		slog.Info("No events broker configured, product events are disabled")
		return nil, func() {}, nil
	}
}

func handleErr(msg string, err error) {
	if err != nil {
		slog.Error("error while "+msg, slog.Any("err", err))
		os.Exit(1)
	}
}
