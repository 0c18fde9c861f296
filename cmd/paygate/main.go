package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Niiaks/paygate/internal/config"
	"github.com/Niiaks/paygate/internal/kafka"
	"github.com/Niiaks/paygate/internal/logger"
	"github.com/Niiaks/paygate/internal/payment"
	"github.com/Niiaks/paygate/internal/psp"
	"github.com/Niiaks/paygate/internal/router"
	"github.com/Niiaks/paygate/internal/server"
	"github.com/Niiaks/paygate/internal/webhook"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	loggerService := logger.New(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	srv, err := server.NewServer(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	paystack := psp.NewPaystackClient(cfg.Paystack, &log)

	var opts []payment.Option
	var webhookPublisher kafka.Publisher
	if srv.Redis != nil {
		opts = append(opts, payment.WithIdempotencyStore(srv.Redis))
	}
	if srv.Producer != nil {
		opts = append(opts, payment.WithEventPublisher(kafka.NewPaymentEvents(srv.Producer)))
		webhookPublisher = srv.Producer
	}

	paymentService := payment.NewPaymentService(cfg, paystack, opts...)

	handlers := &router.Handlers{
		Payment: payment.NewPaymentHandler(paymentService, srv.Endpoints),
		Webhook: webhook.NewWebhookHandler(cfg.Paystack.WebhookSecret, webhookPublisher),
	}

	r := router.NewRouter(srv, handlers)

	srv.SetupHTTPServer(r)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Give outstanding requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}
