package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tableline/internal/config"
	"tableline/internal/notify"
	"tableline/pkg/logger"
	"tableline/pkg/tracing"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// prefetch bounds the jobs a single worker holds unacknowledged.
	prefetch = 10

	healthInterval = 15 * time.Second
)

var errBrokerLost = errors.New("rabbitmq connection lost")

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the config file")
	name := flag.String("name", "", "consumer tag (defaults to hostname)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger("notifier", cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.RabbitMQ.URL == "" {
		log.Fatal("RABBITMQ_URL is required for the notifier")
	}

	_, shutdownTracing, err := tracing.InitTracing(context.Background(), log, tracing.Config{
		ServiceName: cfg.App.Name + "-notifier",
		Endpoint:    cfg.Tracing.Endpoint,
		Probability: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatal("failed to init tracing", zap.Error(err))
	}

	broker, err := notify.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, prefetch)
	if err != nil {
		log.Fatal("failed to connect to rabbitmq", zap.Error(err))
	}
	defer broker.Close()

	tag := *name
	if tag == "" {
		tag, _ = os.Hostname()
	}

	processor := notify.NewProcessor(notify.RegistryFromConfig(cfg, log), log)
	consumer := notify.NewConsumer(broker, cfg.RabbitMQ.Queue, tag, processor, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.Run(gctx)
	})

	// A dropped connection ends the process; the supervisor restarts it
	// with a fresh connection.
	g.Go(func() error {
		ticker := time.NewTicker(healthInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if !broker.IsAlive() {
					return errBrokerLost
				}
			}
		}
	})

	log.Info("notifier started",
		zap.String("queue", cfg.RabbitMQ.Queue),
		zap.String("consumer", tag),
	)

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	shutdownTracing(shutdownCtx)

	if err != nil {
		log.Error("notifier stopped", zap.Error(err))
		os.Exit(1)
	}
	log.Info("notifier exited")
}
