package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/contactsbook/internal/ratelimit"
	"github.com/utafrali/contactsbook/internal/service"
	"github.com/utafrali/contactsbook/pkg/health"
	"github.com/utafrali/contactsbook/pkg/middleware"
)

// ServiceName labels metrics and spans emitted by the router.
const ServiceName = "contacts-book"

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Auth     *service.AuthService
	Contacts *service.ContactService
	Users    *service.UserService

	DB     Pinger
	Health *health.Handler

	// Limiter is nil when rate limiting is disabled.
	Limiter   ratelimit.Limiter
	ReadRule  ratelimit.Rule
	WriteRule ratelimit.Rule

	// TrustedProxies lists the CIDRs whose forwarding headers name the client.
	TrustedProxies []string

	// Media serves in-process avatars under /media; nil disables the route.
	Media MediaSource

	CORS           middleware.CORSConfig
	MaxUploadBytes int64
	PprofEnabled   bool
	PprofCIDRs     []string
	Logger         *slog.Logger
}

// NewRouter creates a chi router with all contacts book routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.PrometheusMetrics(ServiceName))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}
	if cfg.Media != nil {
		r.Get("/media/*", Media(cfg.Media))
	}

	read, write := limits(cfg)
	requireUser := middleware.Auth(accessTokenValidator(cfg.Auth))

	authHandler := NewAuthHandler(cfg.Auth, logger)
	contactHandler := NewContactHandler(cfg.Contacts, logger)
	userHandler := NewUserHandler(cfg.Users, cfg.MaxUploadBytes, logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthchecker", Healthchecker(cfg.DB, logger))

		// Auth endpoints (public)
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.With(ContentTypeJSON).Post("/signup", authHandler.Signup)
			r.With(RequireContentType("application/x-www-form-urlencoded", "multipart/form-data")).
				Post("/login", authHandler.Login)
			r.Get("/refresh_token", authHandler.RefreshToken)
			r.Get("/confirmed_email/{token}", authHandler.ConfirmedEmail)
			r.With(ContentTypeJSON).Post("/request_email", authHandler.RequestEmail)
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Use(requireUser)

			r.With(read).Get("/", contactHandler.List)
			r.With(read).Get("/upcoming_birthdays", contactHandler.UpcomingBirthdays)
			r.With(read).Get("/{id}", contactHandler.Get)
			r.With(write, ContentTypeJSON).Post("/", contactHandler.Create)
			r.With(write, ContentTypeJSON).Put("/{id}", contactHandler.Update)
			r.With(write).Delete("/{id}", contactHandler.Delete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireUser)
			r.Use(middleware.NoStore)

			r.With(read).Get("/me", userHandler.Me)
			r.With(write).Patch("/avatar", userHandler.UpdateAvatar)
		})
	})

	return r
}

// limits returns the read and write rate limit middlewares, or pass-throughs
// when no limiter is configured.
func limits(cfg RouterConfig) (read, write func(http.Handler) http.Handler) {
	if cfg.Limiter == nil {
		pass := func(next http.Handler) http.Handler { return next }
		return pass, pass
	}
	clientIP := middleware.NewClientIPResolver(cfg.TrustedProxies, cfg.Logger).ClientIP
	return ratelimit.Middleware(cfg.Limiter, cfg.ReadRule, clientIP, cfg.Logger),
		ratelimit.Middleware(cfg.Limiter, cfg.WriteRule, clientIP, cfg.Logger)
}

// accessTokenValidator bridges the auth service into the bearer middleware.
// The resolved user travels as the principal's value.
func accessTokenValidator(auth *service.AuthService) middleware.TokenValidator {
	return func(ctx context.Context, token string) (*middleware.Principal, error) {
		user, err := auth.Authenticate(ctx, token)
		if err != nil {
			return nil, err
		}
		return &middleware.Principal{Subject: user.Email, Value: user}, nil
	}
}
