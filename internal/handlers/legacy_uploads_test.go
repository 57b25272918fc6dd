package handlers_test

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithrodrick/portfolio-backend/internal/handlers"
)

func TestServeLegacyUpload(t *testing.T) {
	root := t.TempDir()
	uploads := filepath.Join(root, "uploads")
	require.NoError(t, os.Mkdir(uploads, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "1700000000000-123456789.png"), pngBytes, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.png"), pngBytes, 0o644))

	api := newTestAPI(t, func(o *handlers.Options) { o.UploadsDir = uploads })

	rec := api.do(http.MethodGet, "/uploads/1700000000000-123456789.png", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cross-origin", rec.Header().Get("Cross-Origin-Resource-Policy"))
	assert.Equal(t, pngBytes, rec.Body.Bytes())

	for _, path := range []string{
		"/uploads/notes.txt",
		"/uploads/missing.png",
		"/uploads/..%2Fsecret.png",
		"/uploads/..%5Csecret.png",
	} {
		rec := api.do(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}
