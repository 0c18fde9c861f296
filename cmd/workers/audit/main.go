package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Niiaks/paygate/internal/config"
	"github.com/Niiaks/paygate/internal/kafka"
	"github.com/Niiaks/paygate/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	loggerService := logger.New(cfg.Observability)
	defer loggerService.Shutdown()
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	if !cfg.Kafka.Enabled() {
		log.Fatal().Msg("PAYGATE_KAFKA_BROKERS is required for the audit worker")
	}

	log.Info().Msg("Starting Audit Worker...")

	kafkaCfg := kafka.DefaultConfig(cfg.Kafka.Brokers)

	dlq, err := kafka.NewProducer(kafkaCfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dead-letter producer")
	}
	defer dlq.Close()

	consumer, err := kafka.NewConsumer(kafkaCfg, kafka.GroupAuditWorker, &log,
		[]string{kafka.TopicPaymentEvents, kafka.TopicWebhookReceived},
		kafka.WithDeadLetter(dlq))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize kafka consumer")
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Run(ctx, auditHandler(&log)); err != nil {
			log.Error().Err(err).Msg("Audit worker stopped with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down Audit Worker...")
	cancel()
	<-done

	log.Info().Msg("Audit Worker shutdown complete")
}
