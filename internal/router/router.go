package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Niiaks/paygate/internal/middleware"
	"github.com/Niiaks/paygate/internal/payment"
	"github.com/Niiaks/paygate/internal/server"
	"github.com/Niiaks/paygate/internal/webhook"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Payment *payment.PaymentHandler
	Webhook *webhook.WebhookHandler
}

func NewRouter(s *server.Server, h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	mw := middleware.NewMiddlewares(s)

	// Apply middleware in order
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Tracing.NewRelicMiddleware())
	r.Use(mw.Tracing.EnhanceTracing)
	r.Use(mw.ContextEnhancer.EnhanceContext)
	r.Use(mw.Global.RequestLogger)
	r.Use(mw.Global.Recoverer)
	r.Use(mw.Global.CORS())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health)
		r.Get("/ready", ready(s))

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit.PerClient)

			r.Post("/initialize-payment", h.Payment.InitializePayment)
			r.Get("/verify-payment", h.Payment.VerifyPayment)
			r.Post("/verify-payment", h.Payment.VerifyPayment)
		})

		if h.Webhook != nil {
			r.Post("/webhook/paystack", h.Webhook.HandleWebhook)
		}
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Payment API is running",
	})
}

// ready fails while the Paystack key is missing or a configured Redis is unreachable.
func ready(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"paystack": "ok"}
		status := http.StatusOK

		if !s.Config.HasCredential() {
			checks["paystack"] = "API key not configured"
			status = http.StatusServiceUnavailable
		}

		if s.Redis != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			checks["redis"] = "ok"
			if err := s.Redis.Ping(ctx); err != nil {
				middleware.GetLogger(r.Context()).Warn().Err(err).Msg("Redis readiness check failed")
				checks["redis"] = "unreachable"
				status = http.StatusServiceUnavailable
			}
		}

		writeStatus(w, status, map[string]any{
			"ready":  status == http.StatusOK,
			"checks": checks,
		})
	}
}

func writeStatus(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
