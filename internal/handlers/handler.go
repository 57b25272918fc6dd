package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/codewithrodrick/portfolio-backend/internal/models"
	"github.com/codewithrodrick/portfolio-backend/internal/services"
)

// AdminStore is the credential store the auth handlers need.
type AdminStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
	GetByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context, username, passwordHash string) (*models.AdminUser, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (bool, error)
	UpdateProfileImage(ctx context.Context, id uuid.UUID, imageURL *string) (*models.AdminUser, error)
}

// ContentStore holds projects and the singleton profile.
type ContentStore interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	CreateProject(ctx context.Context, in models.ProjectInput) (*models.Project, error)
	UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) (bool, error)
	GetProfile(ctx context.Context) (*models.Profile, error)
	UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.Profile, error)
}

// SessionStore issues and revokes admin sessions.
type SessionStore interface {
	Create(ctx context.Context, adminID uuid.UUID) (string, error)
	Get(ctx context.Context, token string) (uuid.UUID, bool, error)
	Destroy(ctx context.Context, token string) error
	DestroyAllExcept(ctx context.Context, adminID uuid.UUID, keep string) error
}

// ContactArchive keeps submitted contact messages.
type ContactArchive interface {
	Save(ctx context.Context, msg *models.ContactMessage) error
	Recent(ctx context.Context, limit int64) ([]models.ContactMessage, error)
}

// Options holds the non-store settings of the API layer.
type Options struct {
	CookieName           string
	SessionTTL           time.Duration
	SecureCookies        bool
	UploadMaxBytes       int64
	ContactFallbackEmail string
	UploadsDir           string
	TrustProxy           bool
}

// Handler serves the JSON API.
type Handler struct {
	admins   AdminStore
	content  ContentStore
	sessions SessionStore
	blobs    services.BlobStore
	mailer   services.Mailer
	archive  ContactArchive // nil when MongoDB is not configured
	opts     Options
	logger   *slog.Logger
}

// Deps bundles the collaborators passed to New.
type Deps struct {
	Admins   AdminStore
	Content  ContentStore
	Sessions SessionStore
	Blobs    services.BlobStore
	Mailer   services.Mailer
	Archive  ContactArchive
	Logger   *slog.Logger
}

func New(deps Deps, opts Options) *Handler {
	if deps.Blobs == nil {
		deps.Blobs = services.NotConfiguredBlobStore{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.UploadMaxBytes <= 0 {
		opts.UploadMaxBytes = 10 << 20
	}
	if opts.CookieName == "" {
		opts.CookieName = "portfolio.sid"
	}
	return &Handler{
		admins:   deps.Admins,
		content:  deps.Content,
		sessions: deps.Sessions,
		blobs:    deps.Blobs,
		mailer:   deps.Mailer,
		archive:  deps.Archive,
		opts:     opts,
		logger:   deps.Logger,
	}
}

// CookieName is the name of the session cookie.
func (h *Handler) CookieName() string {
	return h.opts.CookieName
}

// Logger is the logger the handlers write to.
func (h *Handler) Logger() *slog.Logger {
	return h.logger
}

// Sessions exposes the session store for the auth middleware.
func (h *Handler) Sessions() SessionStore {
	return h.sessions
}
