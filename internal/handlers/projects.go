package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/codewithrodrick/portfolio-backend/internal/models"
)

const msgProjectNotFound = "Project not found"

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.content.ListProjects(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.content.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if project == nil {
		writeError(w, http.StatusNotFound, msgProjectNotFound)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var in models.ProjectInput
	if err := readJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validateProjectInput(&in); err != nil {
		h.fail(w, r, err)
		return
	}

	project, err := h.content.CreateProject(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var patch models.ProjectPatch
	if err := readJSON(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validateProjectPatch(&patch); err != nil {
		h.fail(w, r, err)
		return
	}

	project, err := h.content.UpdateProject(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if project == nil {
		writeError(w, http.StatusNotFound, msgProjectNotFound)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.content.DeleteProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, msgProjectNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// validateProjectInput checks required fields and fills defaults.
func validateProjectInput(in *models.ProjectInput) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return badRequest("title is required")
	case strings.TrimSpace(in.Description) == "":
		return badRequest("description is required")
	case strings.TrimSpace(in.ImageURL) == "":
		return badRequest("imageUrl is required")
	}

	if in.DeviceType == "" {
		in.DeviceType = models.DeviceMonitor
	}
	if !in.DeviceType.Valid() {
		return badRequest("deviceType must be one of monitor, tablet, phone")
	}
	if in.OrderIndex == "" {
		in.OrderIndex = "0"
	}
	if in.ImageURLs == nil {
		in.ImageURLs = []string{}
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	return nil
}

// validateProjectPatch applies the create constraints to the fields present.
func validateProjectPatch(p *models.ProjectPatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return badRequest("title cannot be empty")
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return badRequest("description cannot be empty")
	}
	if p.ImageURL != nil && strings.TrimSpace(*p.ImageURL) == "" {
		return badRequest("imageUrl cannot be empty")
	}
	if p.DeviceType != nil && !p.DeviceType.Valid() {
		return badRequest("deviceType must be one of monitor, tablet, phone")
	}
	return nil
}
