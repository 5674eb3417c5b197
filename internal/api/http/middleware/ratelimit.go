package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dtroode/blogauth-server/internal/logger"
	"github.com/dtroode/blogauth-server/internal/ratelimit"
)

// RateLimit rejects requests over the policy with 429 before any other
// processing. Requests are counted per client IP and route path.
type RateLimit struct {
	limiter  ratelimit.Limiter
	policy   ratelimit.Policy
	failOpen bool
	clientIP func(r *http.Request) string
	logger   *logger.Logger
}

// NewRateLimit creates a RateLimit middleware. With failOpen a limiter
// backend error lets the request through; otherwise it is rejected.
func NewRateLimit(
	limiter ratelimit.Limiter,
	policy ratelimit.Policy,
	failOpen bool,
	clientIP func(r *http.Request) string,
	logger *logger.Logger,
) *RateLimit {
	return &RateLimit{
		limiter:  limiter,
		policy:   policy,
		failOpen: failOpen,
		clientIP: clientIP,
		logger:   logger,
	}
}

// Handle applies the limit.
func (m *RateLimit) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.clientIP(r) + "|" + r.URL.Path

		decision, err := m.limiter.Allow(r.Context(), key, m.policy)
		if err != nil {
			if m.failOpen {
				m.logger.Warn("Rate limit middleware: limiter unavailable, allowing request",
					"path", r.URL.Path,
					"error", err.Error())
				next.ServeHTTP(w, r)
				return
			}
			m.logger.Error("Rate limit middleware: limiter unavailable, rejecting request",
				"path", r.URL.Path,
				"error", err.Error())
			reject(w, m.policy.Window)
			return
		}

		if !decision.Allowed {
			reject(w, decision.RetryAfter)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func reject(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int((retryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	w.WriteHeader(http.StatusTooManyRequests)
}
