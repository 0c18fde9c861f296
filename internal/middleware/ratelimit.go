package middleware

import (
	"net"
	"net/http"
	"strconv"

	"github.com/Niiaks/paygate/internal/server"
)

type RateLimit struct {
	s *server.Server
}

func NewRateLimit(s *server.Server) *RateLimit {
	return &RateLimit{s: s}
}

// PerClient applies the sliding-window limit keyed by client IP. Without Redis
// it lets every request through.
func (rl *RateLimit) PerClient(next http.Handler) http.Handler {
	if rl.s.Redis == nil {
		return next
	}

	limit := rl.s.Config.RateLimit.Requests
	window := rl.s.Config.RateLimit.Window

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		res, err := rl.s.Redis.CheckRateLimit(ctx, "ip:"+clientIP(r), limit, window)
		if err != nil {
			GetLogger(ctx).Warn().Err(err).Msg("Rate limit check failed, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))

		if !res.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			GetLogger(ctx).Warn().Msg("Rate limit exceeded")
			writeFailure(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
