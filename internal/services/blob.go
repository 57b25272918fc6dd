package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Upload folders.
const (
	FolderProjects = "projects"
	FolderProfile  = "profile"
)

var (
	// ErrUploadNotConfigured is returned when no object storage backend is set up.
	ErrUploadNotConfigured = errors.New("upload storage is not configured")
	// ErrObjectExists is returned when the generated object name is already taken.
	ErrObjectExists = errors.New("object already exists")
)

// BlobStore stores public image objects.
type BlobStore interface {
	// Upload writes data under name and returns a publicly reachable URL.
	// Implementations never overwrite an existing object.
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, name string) error
}

// UploadError wraps a gateway failure with the object it was writing.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// NewObjectName builds "<folder>/<unix millis>-<9 random digits><ext>" where
// ext is taken from the client's original filename, lowercased.
func NewObjectName(folder, originalName string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(path.Base(filepath.ToSlash(originalName))))
	return fmt.Sprintf("%s/%d-%09d%s", folder, time.Now().UnixMilli(), n.Int64(), ext), nil
}

var generatedBase = regexp.MustCompile(`^\d+-\d{9}(\.[a-z0-9]+)?$`)

// ObjectNameFromURL recovers the object name NewObjectName produced for folder
// from a public URL returned by Upload. URLs that do not end in a generated
// "<folder>/<name>" report false.
func ObjectNameFromURL(rawURL, folder string) (string, bool) {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	marker := "/" + folder + "/"
	i := strings.LastIndex(rawURL, marker)
	if i < 0 {
		return "", false
	}
	base := rawURL[i+len(marker):]
	if !generatedBase.MatchString(base) {
		return "", false
	}
	return folder + "/" + base, true
}

// NotConfiguredBlobStore rejects every operation with ErrUploadNotConfigured.
type NotConfiguredBlobStore struct{}

func (NotConfiguredBlobStore) Upload(_ context.Context, name, _ string, _ []byte) (string, error) {
	return "", &UploadError{Name: name, Err: ErrUploadNotConfigured}
}

func (NotConfiguredBlobStore) Delete(_ context.Context, name string) error {
	return &UploadError{Name: name, Err: ErrUploadNotConfigured}
}
