package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/groupspend/groupspend/internal/middleware"
)

// RouterConfig holds the handlers and middleware settings for the API.
type RouterConfig struct {
	Logger             *slog.Logger
	Verifier           middleware.Verifier
	PublicKey          string
	IsDevelopment      bool
	CORSAllowedOrigins []string
	MaxRequestBodySize int64

	Root     *Handler
	Health   *HealthHandler
	Metrics  *MetricsHandler
	Auth     *AuthHandler
	Groups   *GroupHandler
	Expenses *ExpenseHandler
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	r.Use(middleware.CORS(corsCfg))

	maxBody := cfg.MaxRequestBodySize
	if maxBody <= 0 {
		maxBody = middleware.DefaultSecurityConfig().MaxRequestBodySize
	}
	r.Use(middleware.MaxBodySize(maxBody))

	// Probes and metrics (no auth required)
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}
	r.Get("/", cfg.Root.Hello)

	authCfg := middleware.AuthConfig{
		Logger:   cfg.Logger,
		Verifier: cfg.Verifier,
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePublicKey(cfg.PublicKey))

		r.Post("/auth/signup", cfg.Auth.Signup)
		r.Post("/auth/login", cfg.Auth.Login)

		// Session-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))

			r.Post("/auth/logout", cfg.Auth.Logout)
			r.Get("/auth/session", cfg.Auth.Session)
			r.Get("/profiles", cfg.Auth.Profiles)

			r.Route("/groups", func(r chi.Router) {
				r.Get("/", cfg.Groups.List)
				r.Post("/", cfg.Groups.Create)

				r.Route("/{groupId}", func(r chi.Router) {
					r.Get("/", cfg.Groups.Get)
					r.Post("/invite", cfg.Groups.Invite)
					r.Get("/members", cfg.Groups.Members)
					r.Delete("/members/{userId}", cfg.Groups.RemoveMember)
					r.Get("/expenses", cfg.Expenses.List)
					r.Post("/expenses", cfg.Expenses.Create)
					r.Get("/total", cfg.Expenses.Total)
				})
			})

			r.Put("/expenses/{expenseId}", cfg.Expenses.Update)
			r.Delete("/expenses/{expenseId}", cfg.Expenses.Delete)
		})
	})

	// 404 and 405 handlers
	r.NotFound(cfg.Root.NotFound)
	r.MethodNotAllowed(cfg.Root.MethodNotAllowed)

	return r
}
