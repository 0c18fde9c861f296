package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Niiaks/paygate/internal/config"
	"github.com/newrelic/go-agent/v3/integrations/logcontext-v2/nrzerolog"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

const timeFormat = "2006-01-02 15:04:05"

// LoggerService owns the New Relic application. A service without a license
// key is valid and simply has no application.
type LoggerService struct {
	nrApp *newrelic.Application
}

func New(c *config.ObservabilityConfig) *LoggerService {
	service := &LoggerService{}

	if c.NewRelic.LicenseKey == "" {
		return service
	}

	options := []newrelic.ConfigOption{
		newrelic.ConfigAppName(c.ServiceName),
		newrelic.ConfigLicense(c.NewRelic.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(c.NewRelic.AppLogForwardingEnabled),
		newrelic.ConfigDistributedTracerEnabled(c.NewRelic.DistributedTracingEnabled),
		func(nc *newrelic.Config) {
			nc.Labels = map[string]string{"environment": c.Environment}
		},
	}
	if c.NewRelic.DebugLogging {
		options = append(options, newrelic.ConfigDebugLogger(os.Stdout))
	}

	app, err := newrelic.NewApplication(options...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize New Relic: %v\n", err)
		return service
	}

	service.nrApp = app
	return service
}

// GetApplication returns nil when New Relic is disabled.
func (ls *LoggerService) GetApplication() *newrelic.Application {
	if ls == nil {
		return nil
	}
	return ls.nrApp
}

func (ls *LoggerService) Shutdown() {
	if ls != nil && ls.nrApp != nil {
		ls.nrApp.Shutdown(10 * time.Second)
	}
}

// ParseLevel maps PAYGATE_LOG_LEVEL to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func NewLoggerWithService(cfg *config.ObservabilityConfig, loggerService *LoggerService) zerolog.Logger {
	return newLogger(cfg, loggerService, os.Stdout)
}

func newLogger(cfg *config.ObservabilityConfig, loggerService *LoggerService, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = timeFormat
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	// JSON only in production; everything else gets the console writer.
	if !cfg.IsProduction() || cfg.Logging.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}
	base := zerolog.New(out)

	if app := loggerService.GetApplication(); app != nil && cfg.IsProduction() {
		base = base.Hook(nrzerolog.NewRelicHook{App: app})
	}

	ctx := base.
		Level(ParseLevel(cfg.GetLogLevel())).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment)

	if !cfg.IsProduction() {
		ctx = ctx.Stack()
	}

	return ctx.Logger()
}

// WithTraceContext adds New Relic transaction context to logger
func WithTraceContext(logger zerolog.Logger, txn *newrelic.Transaction) zerolog.Logger {
	if txn == nil {
		return logger
	}

	metadata := txn.GetTraceMetadata()

	return logger.With().
		Str("trace.id", metadata.TraceID).
		Str("span.id", metadata.SpanID).
		Logger()
}

// MaskEmail keeps the first character of the local part and the domain,
// e.g. "jane@example.com" becomes "j***@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// KeyMode reports "live" or "test" for a Paystack secret key without
// exposing it, or "missing" when none is set.
func KeyMode(secret string) string {
	switch {
	case secret == "":
		return "missing"
	case strings.HasPrefix(secret, "sk_live_"):
		return "live"
	case strings.HasPrefix(secret, "sk_test_"):
		return "test"
	default:
		return "unknown"
	}
}
