package ratelimit

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ClientKey derives the client identity for rate limiting: the first
// X-Forwarded-For hop when present, otherwise the connection's remote host.
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware guards a route with the given policy. Excess requests get a 429
// with a Retry-After header and the standard error envelope.
func Middleware(limiter *Limiter, p Policy, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			clientKey := ClientKey(r)
			res := limiter.Allow(clientKey, p)
			if !res.Allowed {
				retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}

				logger.Warn("Rate limit exceeded",
					zap.String("client", clientKey),
					zap.String("path", r.URL.Path),
					zap.Int("retry_after_seconds", retryAfter))

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":       "rate_limited",
					"message":     "Too many requests, retry later",
					"retry_after": retryAfter,
					"timestamp":   time.Now().UTC().Format(time.RFC3339),
				})
				return
			}

			next(w, r)
		}
	}
}
