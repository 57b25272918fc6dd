package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codewithrodrick/portfolio-backend/internal/handlers"
	"github.com/codewithrodrick/portfolio-backend/internal/middleware"
)

// Options controls the router's global middleware.
type Options struct {
	AllowedOrigins  []string
	SecurityHeaders bool
	MetricsEnabled  bool
	TrustProxy      bool
	Logger          *slog.Logger
}

// NewRouter builds the chi router with global middleware and every route.
func NewRouter(h *handlers.Handler, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger, opts.TrustProxy))
	r.Use(middleware.Metrics)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.SecurityHeaders {
		r.Use(middleware.SecurityHeaders)
	}

	r.Get("/health", h.Health)
	if opts.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	SetupRoutes(r, h)
	return r
}

// SetupRoutes registers the API routes on r.
func SetupRoutes(r chi.Router, h *handlers.Handler) {
	requireAuth := middleware.RequireAuth(h.Sessions(), h.CookieName(), h.Logger())

	// Legacy local images
	r.Get("/uploads/{filename}", h.ServeLegacyUpload)

	// Auth
	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)
	r.Post("/api/auth/logout", h.Logout)
	r.Get("/api/auth/admin-exists", h.AdminExists)

	// Public content
	r.Get("/api/projects", h.ListProjects)
	r.Get("/api/projects/{id}", h.GetProject)
	r.Get("/api/profile", h.GetProfile)
	r.Post("/api/contact", h.SubmitContact)

	// Session-gated
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/api/auth/me", h.Me)
		r.Post("/api/auth/change-password", h.ChangePassword)
		r.Post("/api/auth/update-profile-image", h.UpdateProfileImage)

		r.Post("/api/upload", h.UploadImage)

		r.Post("/api/projects", h.CreateProject)
		r.Patch("/api/projects/{id}", h.UpdateProject)
		r.Delete("/api/projects/{id}", h.DeleteProject)

		r.Patch("/api/profile", h.UpdateProfile)
		r.Patch("/api/profile/image", h.UpdateProfileImageURL)

		r.Get("/api/contact/messages", h.ContactMessages)
	})
}
