package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"edupro/internal/events"
	"edupro/pkg/logging"
)

type notifierConfig struct {
	KafkaBrokers []string `env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	Topics       []string `env:"KAFKA_TOPICS" env-separator:"," env-default:"edupro.submissions,edupro.messages"`
	GroupID      string   `env:"KAFKA_GROUP_ID" env-default:"edupro-notifier"`
}

func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("cannot create logger: %v", err))
	}
	defer func() { _ = zapLogger.Sync() }()
	logger := logging.New(zapLogger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cfg notifierConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		logger.Fatal(ctx, "cannot read config", zap.Error(err))
	}

	logger.Info(ctx, "Starting notification consumer",
		zap.Strings("topics", cfg.Topics),
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("group_id", cfg.GroupID),
	)

	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.GroupID, cfg.Topics, events.LogNotifier(logger), logger)
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Error(ctx, "failed to close consumer", zap.Error(err))
		}
	}()

	consumer.Run(ctx)
	logger.Info(ctx, "Consumer shutting down")
}
