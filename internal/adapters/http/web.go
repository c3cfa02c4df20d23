package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mergington/internal/adapters/http/middleware"
)

// Options configures the middleware around the routes.
type Options struct {
	CSRFKey        []byte // 32 bytes
	SecureCookies  bool
	TrustedOrigins []string
	RateLimiter    *middleware.RateLimiter // nil disables rate limiting
	SlowRequest    time.Duration
}

// Routes registers every endpoint on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /api/activities", h.handleListActivities)
	mux.HandleFunc("POST /signup", h.handleSignup)
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /static/", staticHandler())
	return mux
}

// NewMux wires HTTP handlers for the app.
// PRE: opts.CSRFKey is 32 bytes
// POST: Returns the routes wrapped in the security middleware
func NewMux(opts Options, deps Deps) (http.Handler, error) {
	if len(opts.CSRFKey) != 32 {
		return nil, errors.New("csrf key must be 32 bytes")
	}
	h, err := NewHandler(deps)
	if err != nil {
		return nil, err
	}
	h.visitors.secure = opts.SecureCookies

	middlewares := []func(http.Handler) http.Handler{
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, middleware.CSRFOptions{
			Secure:         opts.SecureCookies,
			TrustedOrigins: opts.TrustedOrigins,
		}),
	}
	if opts.RateLimiter != nil {
		middlewares = append(middlewares, middleware.RateLimit(opts.RateLimiter))
	}
	middlewares = append(middlewares, middleware.Timing(opts.SlowRequest))

	// Apply middleware: Timing -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(h.Routes(), middlewares...), nil
}
