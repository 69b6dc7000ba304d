package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/snipurl/snip/internal/metrics"
	"github.com/snipurl/snip/internal/ratelimit"
)

// RateLimitConfig holds configuration for one rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter ratelimit.Limiter
	Policy  ratelimit.Policy
	Metrics metrics.Recorder
	// Now is used to compute reset headers. Defaults to time.Now.
	Now func() time.Time
}

// RateLimit returns middleware that admits requests per client IP under
// cfg.Policy. Limiter errors are logged and the request is let through.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			result, err := cfg.Limiter.Allow(r.Context(), cfg.Policy, ip)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("class", string(cfg.Policy.Class)),
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, result, cfg.Now())

			if !result.Allowed {
				retryAfter := ceilSeconds(result.RetryAfter)
				cfg.Logger.Warn("rate_limit_exceeded",
					slog.String("class", string(cfg.Policy.Class)),
					slog.String("ip", ip),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", retryAfter),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				cfg.Metrics.IncRateLimited(string(cfg.Policy.Class))

				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", cfg.Policy.Message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets the IETF draft RateLimit-* headers. Reset is
// the number of seconds until the window ends.
func setRateLimitHeaders(w http.ResponseWriter, res ratelimit.Result, now time.Time) {
	w.Header().Set("RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("RateLimit-Reset", strconv.FormatInt(ceilSeconds(res.ResetAt.Sub(now)), 10))
}

// ceilSeconds rounds d up to whole seconds, never below 1.
func ceilSeconds(d time.Duration) int64 {
	s := int64(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
