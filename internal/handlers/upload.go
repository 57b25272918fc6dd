package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/codewithrodrick/portfolio-backend/internal/middleware"
	"github.com/codewithrodrick/portfolio-backend/internal/services"
	"github.com/codewithrodrick/portfolio-backend/internal/telemetry"
)

const (
	imageField         = "image"
	multipartOverhead  = 1 << 20
	msgOnlyImages      = "Only image files are allowed"
	msgNoFileUploaded  = "No file uploaded"
	msgUploadFailed    = "Failed to upload image"
	msgMultipleFiles   = "Only one image may be uploaded per request"
	msgMalformedUpload = "Invalid multipart form"
)

var allowedImageExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// imageUpload is a validated image held in memory.
type imageUpload struct {
	folder      string
	filename    string
	contentType string
	data        []byte
}

// UploadImage stores a project image and returns its public URL.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.readImage(w, r, services.FolderProjects, true)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	url, err := h.storeImage(r, img)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": url})
}

// readImage parses a multipart request carrying at most one file in the
// "image" field and validates its size, extension, declared type and actual
// content. It returns nil, nil when no file was sent and required is false.
// Nothing read here reaches the blob store unless validation passes.
func (h *Handler) readImage(w http.ResponseWriter, r *http.Request, folder string, required bool) (*imageUpload, error) {
	maxBytes := h.opts.UploadMaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, h.rejectUpload(folder, tooLargeMessage(maxBytes))
		case errors.Is(err, http.ErrNotMultipart) && !required:
			return nil, nil
		case errors.Is(err, http.ErrNotMultipart):
			return nil, h.rejectUpload(folder, msgNoFileUploaded)
		default:
			return nil, h.rejectUpload(folder, msgMalformedUpload)
		}
	}
	defer r.MultipartForm.RemoveAll()

	var headers []*multipart.FileHeader
	for field, files := range r.MultipartForm.File {
		if field != imageField && len(files) > 0 {
			return nil, h.rejectUpload(folder, fmt.Sprintf("Unexpected file field %q", field))
		}
		headers = append(headers, files...)
	}
	switch {
	case len(headers) == 0 && required:
		return nil, h.rejectUpload(folder, msgNoFileUploaded)
	case len(headers) == 0:
		return nil, nil
	case len(headers) > 1:
		return nil, h.rejectUpload(folder, msgMultipleFiles)
	}

	fh := headers[0]
	if fh.Size > maxBytes {
		return nil, h.rejectUpload(folder, tooLargeMessage(maxBytes))
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	declared := strings.ToLower(strings.TrimSpace(strings.Split(fh.Header.Get("Content-Type"), ";")[0]))
	if !allowedImageExtensions[ext] || !allowedImageTypes[declared] {
		return nil, h.rejectUpload(folder, msgOnlyImages)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, h.rejectUpload(folder, tooLargeMessage(maxBytes))
	}

	// The declared type is client-controlled; trust only the bytes.
	detected := mimetype.Detect(data)
	if !allowedImageTypes[detected.String()] {
		return nil, h.rejectUpload(folder, msgOnlyImages)
	}

	return &imageUpload{
		folder:      folder,
		filename:    fh.Filename,
		contentType: detected.String(),
		data:        data,
	}, nil
}

// storeImage uploads a validated image under a fresh collision-resistant name.
func (h *Handler) storeImage(r *http.Request, img *imageUpload) (string, error) {
	name, err := services.NewObjectName(img.folder, img.filename)
	if err != nil {
		return "", err
	}

	url, err := h.blobs.Upload(r.Context(), name, img.contentType, img.data)
	if err != nil {
		telemetry.UploadsTotal.WithLabelValues(img.folder, "failed").Inc()
		h.logger.Error("image upload failed",
			"object", name,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		return "", &APIError{Status: http.StatusInternalServerError, Message: msgUploadFailed}
	}

	telemetry.UploadsTotal.WithLabelValues(img.folder, "ok").Inc()
	h.logger.Info("image uploaded", "object", name, "bytes", len(img.data))
	return url, nil
}

// removeReplacedImage deletes the stored avatar that previous pointed at once
// it is no longer referenced. Failures are logged and otherwise ignored.
func (h *Handler) removeReplacedImage(r *http.Request, previous, next *string) {
	if previous == nil || (next != nil && *next == *previous) {
		return
	}
	name, ok := services.ObjectNameFromURL(*previous, services.FolderProfile)
	if !ok {
		return
	}
	if err := h.blobs.Delete(r.Context(), name); err != nil {
		h.logger.Warn("failed to delete replaced profile image",
			"object", name,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		return
	}
	h.logger.Info("replaced profile image deleted", "object", name)
}

func (h *Handler) rejectUpload(folder, message string) error {
	telemetry.UploadsTotal.WithLabelValues(folder, "rejected").Inc()
	return badRequest(message)
}

func tooLargeMessage(maxBytes int64) string {
	return fmt.Sprintf("File too large. Maximum size is %dMB", maxBytes>>20)
}
