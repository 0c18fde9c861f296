package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Niiaks/paygate/internal/config"
	"github.com/Niiaks/paygate/internal/kafka"
	loggerPkg "github.com/Niiaks/paygate/internal/logger"
	"github.com/Niiaks/paygate/internal/redis"
	"github.com/rs/zerolog"
)

type Server struct {
	Config        *config.Config
	Endpoints     config.Endpoints
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService
	// Redis and Producer are nil when not configured.
	Redis    *redis.Client
	Producer *kafka.Producer

	httpServer *http.Server
}

// NewServer connects the optional Redis and Kafka backends. A backend that is
// configured but unreachable is a startup error.
func NewServer(cfg *config.Config, logger *zerolog.Logger, ls *loggerPkg.LoggerService) (*Server, error) {
	s := &Server{
		Config:        cfg,
		Endpoints:     config.Resolve(cfg),
		Logger:        logger,
		LoggerService: ls,
	}

	if cfg.Redis.Enabled() {
		rdb, err := redis.New(logger, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		s.Redis = rdb
	} else {
		logger.Info().Msg("Redis not configured; rate limiting and idempotency cache disabled")
	}

	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(kafka.DefaultConfig(cfg.Kafka.Brokers), logger)
		if err != nil {
			s.closeBackends()
			return nil, fmt.Errorf("failed to initialize kafka producer: %w", err)
		}
		s.Producer = producer
	} else {
		logger.Info().Msg("Kafka not configured; payment events will not be published")
	}

	logger.Info().
		Str("env", cfg.Primary.Env).
		Bool("has_paystack_key", cfg.HasCredential()).
		Str("paystack_key_mode", loggerPkg.KeyMode(cfg.Paystack.SecretKey)).
		Str("currency", cfg.Paystack.Currency).
		Str("callback_url", s.Endpoints.CallbackURL).
		Strs("allowed_origins", s.Endpoints.AllowedOrigins).
		Msg("Environment check")

	return s, nil
}

func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("http server not set up")
	}

	s.Logger.Info().
		Str("addr", s.httpServer.Addr).
		Str("health", "http://localhost"+s.httpServer.Addr+"/api/health").
		Msg("server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.closeBackends()
	return err
}

func (s *Server) closeBackends() {
	if s.Producer != nil {
		s.Producer.Close()
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.Logger.Error().Err(err).Msg("failed to close redis client")
		}
	}
}
