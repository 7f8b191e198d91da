package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spacesedan/sentilens/config"
	"github.com/spacesedan/sentilens/internal/api"
	"github.com/spacesedan/sentilens/internal/clients"
	"github.com/spacesedan/sentilens/internal/clients/kafka_client"
	"github.com/spacesedan/sentilens/internal/db"
	"github.com/spacesedan/sentilens/internal/logging"
	"github.com/spacesedan/sentilens/internal/monitoring"
	"github.com/spacesedan/sentilens/internal/ratelimit"
	"github.com/spacesedan/sentilens/internal/sentiment"
	"github.com/spacesedan/sentilens/internal/sinks"
)

const (
	shutdownTimeout = 15 * time.Second
	sinkTimeout     = 5 * time.Second

	modelProbeInterval = time.Minute
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("[Main] Service stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := monitoring.NewRegistry()

	// Models
	hugotCfg := clients.HugotConfig{
		ModelDir:     cfg.ModelDir,
		EmotionModel: cfg.EmotionModel,
		ABSAModel:    cfg.ABSAModel,
	}
	if cfg.SentimentBackend != config.SentimentBackendVADER {
		hugotCfg.SentimentModel = cfg.SentimentModel
	}
	hugotClient, err := clients.NewHugotClient(hugotCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := hugotClient.Destroy(); err != nil {
			slog.Warn("[Main] Failed to destroy hugot session", slog.String("error", err.Error()))
		}
	}()
	go monitoring.MonitorHealth(ctx, "models", hugotClient.Probe, health.Register("models"), modelProbeInterval)

	var sentimentClassifier sentiment.SentimentClassifier
	if hugotClient.Sentiment != nil {
		sentimentClassifier = sentiment.NewPipelineSentimentClassifier(hugotClient.Sentiment)
	} else {
		slog.Info("[Main] Using VADER sentiment backend")
		sentimentClassifier = sentiment.NewVADERClassifier()
	}
	analyzer := sentiment.NewAnalyzer(
		sentimentClassifier,
		sentiment.NewPipelineEmotionClassifier(hugotClient.Emotion, cfg.EmotionTopK),
		sentiment.NewPipelineAspectClassifier(hugotClient.ABSA),
	)

	// Rate limiting
	clock := clockwork.NewRealClock()
	var store middleware.RateLimiterStore
	if cfg.ValkeyAddress != "" {
		valkeyClient, err := clients.NewValkeyClient(clients.ValkeyConfig{
			Address:  cfg.ValkeyAddress,
			Password: cfg.ValkeyPassword,
			TLS:      cfg.ValkeyTLS,
		})
		if err != nil {
			return err
		}
		defer valkeyClient.Close()

		go monitoring.MonitorHealth(ctx, "valkey", valkeyClient.Ping, health.Register("valkey"), 0)
		store = ratelimit.NewValkeyStore(valkeyClient.Client, clock, cfg.RateLimitRequests, cfg.RateLimitWindow)
		slog.Info("[Main] Rate limiter backed by Valkey", slog.String("address", cfg.ValkeyAddress))
	} else {
		memStore := ratelimit.NewMemoryStore(clock, cfg.RateLimitRequests, cfg.RateLimitWindow)
		go memStore.Run(ctx)
		store = memStore
		slog.Info("[Main] Rate limiter backed by process memory")
	}

	// Result sinks
	var resultSinks []sinks.Sink
	if cfg.KafkaBroker != "" {
		producer, err := kafka_client.NewProducer(kafka_client.KafkaConfig{
			Broker: cfg.KafkaBroker,
			Topic:  cfg.KafkaResultsTopic,
		})
		if err != nil {
			return err
		}
		defer producer.Close()
		resultSinks = append(resultSinks, sinks.NewKafkaSink(producer, cfg.KafkaResultsTopic))
	}

	storeDone := make(chan struct{})
	storeCtx, stopStore := context.WithCancel(context.Background())
	defer stopStore()
	if cfg.DynamoDBResultsTable != "" {
		dynamoClient, err := clients.NewDynamoDBClient(ctx, clients.AWSConfig{
			Region:   cfg.AWSRegion,
			Endpoint: cfg.AWSEndpoint,
		})
		if err != nil {
			return err
		}
		resultStore := db.NewResultStore(dynamoClient, cfg.DynamoDBResultsTable)
		go func() {
			defer close(storeDone)
			resultStore.Run(storeCtx)
		}()
		resultSinks = append(resultSinks, resultStore)
	} else {
		close(storeDone)
	}

	server := api.NewServer(api.Options{
		Analyzer:       analyzer,
		RateLimitStore: store,
		RateLimit:      cfg.RateLimitRequests,
		RateWindow:     cfg.RateLimitWindow,
		Sinks:          sinks.NewDispatcher(sinkTimeout, resultSinks...),
		Health:         health,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(":" + cfg.Port)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		slog.Info("[Main] Shutting down server gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, err)
	}

	// Sink publications have drained, so the final DynamoDB flush sees them all.
	stopStore()
	<-storeDone
	return serveErr
}
