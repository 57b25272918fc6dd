package handlers

import (
	"net/http"

	"github.com/codewithrodrick/portfolio-backend/internal/models"
	"github.com/codewithrodrick/portfolio-backend/internal/services"
)

// GetProfile returns the singleton profile, creating the default on first read.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.content.GetProfile(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile merges the supplied fields into the profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch models.ProfilePatch
	if err := readJSON(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	if patch.ContactEmail != nil {
		email, err := services.SanitizeEmailAddress(*patch.ContactEmail)
		if err != nil {
			writeError(w, http.StatusBadRequest, "contactEmail must be a valid email address")
			return
		}
		patch.ContactEmail = &email
	}

	profile, err := h.content.UpdateProfile(r.Context(), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfileImageURL sets only the profile image URL. An explicit null
// clears it; an omitted field changes nothing.
func (h *Handler) UpdateProfileImageURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProfileImageURL models.Optional[string] `json:"profileImageUrl"`
	}
	if err := readJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	profile, err := h.content.UpdateProfile(r.Context(), models.ProfilePatch{ProfileImageURL: req.ProfileImageURL})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
