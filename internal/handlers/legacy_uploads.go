package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ServeLegacyUpload serves images written to the local uploads directory by
// earlier deployments. Only allow-listed image names directly inside the
// directory are served.
func (h *Handler) ServeLegacyUpload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	path, ok := h.legacyUploadPath(filename)
	if !ok {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
	http.ServeFile(w, r, path)
}

func (h *Handler) legacyUploadPath(filename string) (string, bool) {
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return "", false
	}
	if !allowedImageExtensions[strings.ToLower(filepath.Ext(filename))] {
		return "", false
	}

	root, err := filepath.Abs(h.opts.UploadsDir)
	if err != nil {
		return "", false
	}
	resolved, err := filepath.Abs(filepath.Join(root, filename))
	if err != nil {
		return "", false
	}
	if filepath.Dir(resolved) != root {
		return "", false
	}
	return resolved, true
}
