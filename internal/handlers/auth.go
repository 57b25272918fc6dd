package handlers

import (
	"errors"
	"net/http"

	"github.com/codewithrodrick/portfolio-backend/internal/middleware"
	"github.com/codewithrodrick/portfolio-backend/internal/services"
	"github.com/codewithrodrick/portfolio-backend/internal/telemetry"
	"github.com/codewithrodrick/portfolio-backend/pkg/utils"
)

const (
	msgRegistrationClosed = "Admin account already exists. Registration is closed."
	msgInvalidCredentials = "Invalid credentials"
	msgUserNotFound       = "User not found"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type adminResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type meResponse struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Register creates the one admin account and signs it in. Once an admin
// exists every call is rejected with 403.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialsRequest
	if err := readJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	exists, err := h.admins.Exists(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if exists {
		writeError(w, http.StatusForbidden, msgRegistrationClosed)
		return
	}

	if err := utils.ValidateUsername(req.Username); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.admins.Create(ctx, req.Username, hash)
	switch {
	case errors.Is(err, services.ErrAdminExists):
		writeError(w, http.StatusForbidden, msgRegistrationClosed)
		return
	case errors.Is(err, services.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "Username already exists")
		return
	case err != nil:
		h.fail(w, r, err)
		return
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("admin account registered", "admin_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusOK, adminResponse{ID: user.ID.String(), Username: user.Username})
}

// Login verifies credentials and rotates the session. Unknown usernames and
// wrong passwords get the same 401.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialsRequest
	if err := readJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.admins.GetByUsername(ctx, req.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	hash := utils.UnmatchableHash
	if user != nil {
		hash = user.PasswordHash
	}
	ok, err := utils.VerifyPassword(req.Password, hash)
	if err != nil {
		if user != nil {
			h.logger.Warn("stored password hash is unreadable", "admin_id", user.ID, "error", err)
		}
		ok = false
	}
	if user == nil || req.Password == "" || !ok {
		telemetry.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		h.fail(w, r, err)
		return
	}

	telemetry.LoginAttemptsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, adminResponse{ID: user.ID.String(), Username: user.Username})
}

// Logout destroys the presented session, if any. Always succeeds for a
// missing or stale cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.opts.CookieName); err == nil && c.Value != "" {
		if err := h.sessions.Destroy(r.Context(), c.Value); err != nil {
			h.logger.Error("failed to destroy session", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to logout")
			return
		}
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.AdminIDFromContext(r.Context())
	if !ok {
		h.fail(w, r, errUnauthorized)
		return
	}

	user, err := h.admins.GetByID(r.Context(), adminID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		ID:              user.ID.String(),
		Username:        user.Username,
		ProfileImageURL: user.ProfileImageURL,
	})
}

func (h *Handler) AdminExists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.admins.Exists(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// ChangePassword checks the current password before looking at the new one,
// so a wrong current password is always 401. Other sessions of the admin are
// revoked on success.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID, ok := middleware.AdminIDFromContext(ctx)
	if !ok {
		h.fail(w, r, errUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := readJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.CurrentPassword == "" {
		writeError(w, http.StatusBadRequest, "Current and new passwords are required")
		return
	}

	user, err := h.admins.GetByID(ctx, adminID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	valid, err := utils.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		h.logger.Warn("stored password hash is unreadable", "admin_id", user.ID, "error", err)
	}
	if !valid {
		writeError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.admins.UpdatePassword(ctx, adminID, hash)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	if err := h.sessions.DestroyAllExcept(ctx, adminID, middleware.SessionTokenFromContext(ctx)); err != nil {
		h.logger.Error("failed to revoke other sessions after password change", "admin_id", adminID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password updated successfully",
	})
}

// UpdateProfileImage replaces the admin avatar with the uploaded image, or
// clears it when the request carries no file.
func (h *Handler) UpdateProfileImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID, ok := middleware.AdminIDFromContext(ctx)
	if !ok {
		h.fail(w, r, errUnauthorized)
		return
	}

	img, err := h.readImage(w, r, services.FolderProfile, false)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var imageURL *string
	if img != nil {
		url, err := h.storeImage(r, img)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		imageURL = &url
	}

	current, err := h.admins.GetByID(ctx, adminID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.admins.UpdateProfileImage(ctx, adminID, imageURL)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}
	if current != nil {
		h.removeReplacedImage(r, current.ProfileImageURL, imageURL)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"profileImageUrl": imageURL,
	})
}
