package routers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/sbilibin2017/gw-home-inventory/docs"
	"github.com/sbilibin2017/gw-home-inventory/internal/logger"
	"github.com/sbilibin2017/gw-home-inventory/internal/middlewares"
)

// Options holds the cross-cutting settings shared by both routers.
type Options struct {
	Service     string
	CORSOrigins []string
	// Registry receives the HTTP metrics and backs /metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
	// AuthRateLimit caps requests per client IP on /api/auth within AuthRateWindow. Zero disables it.
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

// UserHandlers are the endpoints served by the user service.
type UserHandlers struct {
	Register       http.HandlerFunc
	Login          http.HandlerFunc
	ForgotPassword http.HandlerFunc
	VerifyOTP      http.HandlerFunc
	ResetPassword  http.HandlerFunc
	GetProfile     http.HandlerFunc
	UpdateProfile  http.HandlerFunc
	DeleteAccount  http.HandlerFunc
	Health         http.HandlerFunc
}

// InventoryHandlers are the endpoints served by the inventory service.
type InventoryHandlers struct {
	List   http.HandlerFunc
	Get    http.HandlerFunc
	Create http.HandlerFunc
	Update http.HandlerFunc
	Delete http.HandlerFunc
	Report http.HandlerFunc
	Health http.HandlerFunc
}

// NewUserRouter mounts the account endpoints under /api/auth.
// Profile and account deletion are guarded by auth.
func NewUserRouter(h UserHandlers, auth func(http.Handler) http.Handler, opts Options) http.Handler {
	r := newBaseRouter(opts)
	r.Get("/health", h.Health)

	r.Route("/api/auth", func(r chi.Router) {
		if opts.AuthRateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.AuthRateLimit, opts.AuthRateWindow))
		}

		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/verify-otp", h.VerifyOTP)
		r.Post("/reset-password", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
			r.Delete("/delete-account", h.DeleteAccount)
		})
	})

	return r
}

// NewInventoryRouter mounts the item endpoints under /api/items. Every item route is
// guarded by auth and writes are wrapped by tx.
func NewInventoryRouter(h InventoryHandlers, auth, tx func(http.Handler) http.Handler, opts Options) http.Handler {
	r := newBaseRouter(opts)
	r.Get("/", h.Health)
	r.Get("/health", h.Health)

	r.Route("/api/items", func(r chi.Router) {
		r.Use(auth)

		r.Get("/", h.List)
		r.Get("/report", h.Report)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(tx)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})

	return r
}

func newBaseRouter(opts Options) chi.Router {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics := middlewares.NewMetrics(reg, opts.Service)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	return r
}
