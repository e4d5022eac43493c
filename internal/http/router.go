package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 30 * time.Second

type routerOptions struct {
	allowedOrigins []string
	requestTimeout time.Duration
}

type RouterOption func(*routerOptions)

func WithAllowedOrigins(origins ...string) RouterOption {
	return func(o *routerOptions) { o.allowedOrigins = origins }
}

func WithRequestTimeout(d time.Duration) RouterOption {
	return func(o *routerOptions) {
		if d > 0 {
			o.requestTimeout = d
		}
	}
}

// NewRouter mounts the REST API on a chi router.
func NewRouter(h *Handlers, logger *zap.Logger, opts ...RouterOption) http.Handler {
	options := &routerOptions{
		allowedOrigins: []string{"http://localhost:3000"},
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(options)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(logger.Named("http")), middleware.Recoverer)
	r.Use(middleware.Timeout(options.requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: options.allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Length", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)

	r.Get("/stock/{symbol}", h.Quote)
	r.Get("/history/{symbol}", h.History)
	r.Get("/news/{symbol}", h.News)
	r.Get("/ratios/{symbol}", h.Ratios)
	r.Get("/predict/{symbol}", h.Predict)
	r.Get("/overview/{symbol}", h.Overview)
	r.Get("/scores/{symbol}", h.Scores)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
