package middleware

import (
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/skilltrack/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds a fixed-window request limit
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Message  string
}

// DefaultRegisterRateLimit allows 10 registrations per hour from one address
func DefaultRegisterRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Requests: 10,
		Window:   time.Hour,
		Message:  "Too many accounts created from this IP, try later.",
	}
}

// DefaultAPIRateLimit allows 100 API requests per 15 minutes from one address
func DefaultAPIRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Requests: 100,
		Window:   15 * time.Minute,
		Message:  "Too many requests, please try again later.",
	}
}

// RateLimitByIP creates a middleware that rate limits requests by client IP.
// The address comes from the resolver so forwarded headers are only trusted behind known proxies.
func RateLimitByIP(config RateLimitConfig, resolver *pkghttp.IPResolver) func(next http.Handler) http.Handler {
	message := config.Message
	if message == "" {
		message = "Too many requests, please try again later."
	}

	return httprate.Limit(
		config.Requests,
		config.Window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return resolver.ClientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, message)
		}),
	)
}
