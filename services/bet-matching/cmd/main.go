package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muhammadchandra19/bet-exchange/pkg/httplib/healthcheck"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	"github.com/muhammadchandra19/bet-exchange/pkg/redis"
	app "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/app/engine"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/infrastructure/redis/sortedset"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/metrics"
	actionreader "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/usecase/action-reader"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/usecase/checkpoint"
	deadletter "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/usecase/dead-letter"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/usecase/exchange"
	executionpublisher "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/usecase/execution-publisher"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/usecase/matcher"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/pkg/config"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logger.NewLogger(logger.WithLoggingLevel(logger.ParseLevel(cfg.App.LogLevel)))
	if err != nil {
		panic(err)
	}

	log = logger
}

func main() {
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	rclient := redis.NewClient(log, &cfg.Redis)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "connect_redis"})
		if !rclient.Reconnect(ctx) {
			return
		}
	}

	m := metrics.New()

	bookStore := sortedset.NewStore(rclient)
	ex := exchange.NewExchange(bookStore, log)
	execPublisher := executionpublisher.NewPublisher(cfg.ExecutionKafka, log)
	dlPublisher := deadletter.NewPublisher(cfg.DeadLetterKafka, log)
	checkpointStore := checkpoint.NewCheckpointStore(rclient, cfg.ActionKafka.Topic, cfg.ActionKafka.Partition, log)
	aReader := actionreader.NewReader(cfg.ActionKafka, log)
	betMatcher := matcher.NewMatcher(ex, execPublisher, log)

	engine, err := app.NewEngineWithOptions(
		betMatcher,
		aReader,
		checkpointStore,
		dlPublisher,
		execPublisher,
		m,
		log,
		cfg.ActionKafka,
		app.OptionsFromConfig(cfg.Engine),
	)
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "create_engine"})
		return
	}

	health := healthcheck.HealthCheck{
		Checks: map[string]healthcheck.Check{
			"redis": rclient.Ping,
		},
		Timeout: 2 * time.Second,
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.MetricsPort),
		Handler:           health.Handler(m.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, logger.Field{Key: "action", Value: "serve_metrics"})
		}
	}()

	if err := engine.Start(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "start_engine"})
		return
	}

	log.Info("Bet matching service started successfully",
		logger.Field{Key: "topic", Value: cfg.ActionKafka.Topic},
		logger.Field{Key: "partition", Value: cfg.ActionKafka.Partition},
		logger.Field{Key: "metricsPort", Value: cfg.App.MetricsPort},
	)

	sig := <-sigChan
	log.Info("Received shutdown signal", logger.Field{Key: "signal", Value: sig.String()})

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := engine.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "stop_engine"})
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "stop_metrics_server"})
	}

	if err := execPublisher.Close(); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "close_execution_publisher"})
	}
	if err := dlPublisher.Close(); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "close_dead_letter_publisher"})
	}

	if err := rclient.Disconnect(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "close_redis_client"})
	}

	log.Info("Bet matching service shutdown complete")
}
