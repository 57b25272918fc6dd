package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/codewithrodrick/portfolio-backend/internal/models"
)

// ProfileID is the well-known key of the singleton profile row.
const ProfileID = "default"

const (
	projectColumns = `id, title, description, image_url, image_urls, device_type, tags, order_index, created_at`
	profileColumns = `id, profile_image_url, bio_1, bio_2, bio_3, skills, contact_email, updated_at`
)

// DefaultProfile is the content a fresh deployment shows until the admin edits it.
var DefaultProfile = models.Profile{
	ID:   ProfileID,
	Bio1: "Hi, I'm Rodrick! I'm a passionate web developer and designer with a love for creating beautiful, functional websites that make a real impact. With over 5 years of experience, I've had the privilege of working with clients from startups to established businesses.",
	Bio2: "My approach combines clean code with stunning design. I believe every website should not only look great but also provide an exceptional user experience. From concept to launch, I'm dedicated to bringing your vision to life.",
	Bio3: "When I'm not coding, you'll find me exploring new design trends, contributing to open-source projects, or enjoying a good cup of coffee while sketching out my next creative idea.",
	Skills: pq.StringArray{
		"React", "TypeScript", "Node.js", "Tailwind CSS",
		"UI/UX Design", "Responsive Design", "API Development", "Database Design",
	},
	ContactEmail: "rodrickadeboye@gmail.com",
}

// ContentStore owns projects and the singleton profile.
type ContentStore struct {
	db *sqlx.DB
}

func NewContentStore(db *sqlx.DB) *ContentStore {
	return &ContentStore{db: db}
}

// ListProjects returns every project ordered ascending by order index.
func (s *ContentStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects := []models.Project{}
	err := s.db.SelectContext(ctx, &projects, `
		SELECT `+projectColumns+`
		FROM projects
		ORDER BY order_index ASC, created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		normalizeProject(&projects[i])
	}
	return projects, nil
}

// GetProject returns nil, nil for unknown or malformed ids.
func (s *ContentStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	project := &models.Project{}
	err = s.db.GetContext(ctx, project, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	normalizeProject(project)
	return project, nil
}

// CreateProject inserts a validated project, filling defaults for omitted optional fields.
func (s *ContentStore) CreateProject(ctx context.Context, in models.ProjectInput) (*models.Project, error) {
	p := &models.Project{
		ID:          uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		ImageURLs:   pq.StringArray(in.ImageURLs),
		DeviceType:  in.DeviceType,
		Tags:        pq.StringArray(in.Tags),
		OrderIndex:  in.OrderIndex,
		CreatedAt:   time.Now().UTC(),
	}
	normalizeProject(p)

	created := &models.Project{}
	err := s.db.GetContext(ctx, created, `
		INSERT INTO projects (id, title, description, image_url, image_urls, device_type, tags, order_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+projectColumns,
		p.ID, p.Title, p.Description, p.ImageURL, p.ImageURLs, string(p.DeviceType), p.Tags, p.OrderIndex, p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	normalizeProject(created)
	return created, nil
}

// UpdateProject merges the non-nil fields of patch into the stored row in a
// single statement. Returns nil, nil when the project does not exist.
func (s *ContentStore) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	var deviceType *string
	if patch.DeviceType != nil {
		dt := string(*patch.DeviceType)
		deviceType = &dt
	}

	updated := &models.Project{}
	err = s.db.GetContext(ctx, updated, `
		UPDATE projects SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			image_url = COALESCE($4, image_url),
			image_urls = COALESCE($5::text[], image_urls),
			device_type = COALESCE($6, device_type),
			tags = COALESCE($7::text[], tags),
			order_index = COALESCE($8, order_index)
		WHERE id = $1
		RETURNING `+projectColumns,
		projectID, patch.Title, patch.Description, patch.ImageURL, nullableArray(patch.ImageURLs),
		deviceType, nullableArray(patch.Tags), patch.OrderIndex,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	normalizeProject(updated)
	return updated, nil
}

// DeleteProject reports whether a row was removed.
func (s *ContentStore) DeleteProject(ctx context.Context, id string) (bool, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetProfile returns the singleton profile, creating it with DefaultProfile
// content on first access.
func (s *ContentStore) GetProfile(ctx context.Context) (*models.Profile, error) {
	if err := s.ensureProfile(ctx); err != nil {
		return nil, err
	}

	profile := &models.Profile{}
	if err := s.db.GetContext(ctx, profile, `SELECT `+profileColumns+` FROM profile WHERE id = $1`, ProfileID); err != nil {
		return nil, err
	}
	normalizeProfile(profile)
	return profile, nil
}

// UpdateProfile applies patch to the singleton profile (creating it first if
// needed) and refreshes updated_at.
func (s *ContentStore) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.Profile, error) {
	if err := s.ensureProfile(ctx); err != nil {
		return nil, err
	}

	profile := &models.Profile{}
	err := s.db.GetContext(ctx, profile, `
		UPDATE profile SET
			profile_image_url = CASE WHEN $2::boolean THEN $3::text ELSE profile_image_url END,
			bio_1 = COALESCE($4, bio_1),
			bio_2 = COALESCE($5, bio_2),
			bio_3 = COALESCE($6, bio_3),
			skills = COALESCE($7::text[], skills),
			contact_email = COALESCE($8, contact_email),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+profileColumns,
		ProfileID, patch.ProfileImageURL.Set, patch.ProfileImageURL.Value, patch.Bio1, patch.Bio2, patch.Bio3,
		nullableArray(patch.Skills), patch.ContactEmail,
	)
	if err != nil {
		return nil, err
	}
	normalizeProfile(profile)
	return profile, nil
}

// ensureProfile inserts the default row once; concurrent callers race on the
// primary key and all but one become no-ops.
func (s *ContentStore) ensureProfile(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile (id, bio_1, bio_2, bio_3, skills, contact_email, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO NOTHING
	`, ProfileID, DefaultProfile.Bio1, DefaultProfile.Bio2, DefaultProfile.Bio3, DefaultProfile.Skills, DefaultProfile.ContactEmail)
	return err
}

func nullableArray(v *[]string) interface{} {
	if v == nil {
		return nil
	}
	return pq.StringArray(*v)
}

func normalizeProject(p *models.Project) {
	if p.ImageURLs == nil {
		p.ImageURLs = pq.StringArray{}
	}
	if p.Tags == nil {
		p.Tags = pq.StringArray{}
	}
	if p.DeviceType == "" {
		p.DeviceType = models.DeviceMonitor
	}
	if p.OrderIndex == "" {
		p.OrderIndex = "0"
	}
}

func normalizeProfile(p *models.Profile) {
	if p.Skills == nil {
		p.Skills = pq.StringArray{}
	}
}
