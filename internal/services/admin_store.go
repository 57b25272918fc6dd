package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/codewithrodrick/portfolio-backend/internal/models"
)

var (
	// ErrAdminExists is returned by Create once an admin account has been registered.
	ErrAdminExists = errors.New("admin account already exists")
	// ErrUsernameTaken is returned when the username collides with an existing row.
	ErrUsernameTaken = errors.New("username already exists")
)

// adminCreateLockKey is the pg_advisory_xact_lock key that serializes admin
// registration across every server process sharing the database.
const adminCreateLockKey int64 = 0x61646d696e // "admin"

const adminColumns = `id, username, password, profile_image_url, created_at`

// AdminStore persists the zero-or-one admin identity.
type AdminStore struct {
	db *sqlx.DB
}

func NewAdminStore(db *sqlx.DB) *AdminStore {
	return &AdminStore{db: db}
}

// GetByID returns nil, nil when no admin has that id.
func (s *AdminStore) GetByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	user := &models.AdminUser{}
	err := s.db.GetContext(ctx, user, `SELECT `+adminColumns+` FROM admin_users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByUsername looks up an admin by exact, case-sensitive username.
// Returns nil, nil on a miss.
func (s *AdminStore) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	user := &models.AdminUser{}
	err := s.db.GetContext(ctx, user, `SELECT `+adminColumns+` FROM admin_users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AdminStore) Exists(ctx context.Context) (bool, error) {
	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM admin_users)`); err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts the admin account. The existence check and the insert run in
// one transaction holding an advisory lock, so concurrent callers (in this or
// any other process) are serialized and at most one of them inserts.
func (s *AdminStore) Create(ctx context.Context, username, passwordHash string) (*models.AdminUser, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin admin create: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, adminCreateLockKey); err != nil {
		return nil, fmt.Errorf("lock admin create: %w", err)
	}

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM admin_users)`); err != nil {
		return nil, fmt.Errorf("check admin exists: %w", err)
	}
	if exists {
		return nil, ErrAdminExists
	}

	user := &models.AdminUser{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO admin_users (id, username, password, created_at)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	if isUniqueViolation(err) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit admin create: %w", err)
	}
	return user, nil
}

// UpdatePassword stores a new hash. Reports false when the admin does not exist.
func (s *AdminStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE admin_users SET password = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateProfileImage sets (or clears, when imageURL is nil) the admin's avatar.
// Returns nil, nil when the admin does not exist.
func (s *AdminStore) UpdateProfileImage(ctx context.Context, id uuid.UUID, imageURL *string) (*models.AdminUser, error) {
	user := &models.AdminUser{}
	err := s.db.GetContext(ctx, user, `
		UPDATE admin_users SET profile_image_url = $2
		WHERE id = $1
		RETURNING `+adminColumns, id, imageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
