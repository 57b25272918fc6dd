package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryBlobStore keeps images in a Cloudinary media folder.
type CloudinaryBlobStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryBlobStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryBlobStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryBlobStore{
		cld:    cld,
		folder: strings.Trim(folder, "/"),
	}, nil
}

func (s *CloudinaryBlobStore) Upload(ctx context.Context, name, _ string, data []byte) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:       s.publicID(name),
		ResourceType:   "image",
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(false),
	})
	if err != nil {
		return "", &UploadError{Name: name, Err: err}
	}
	if result.Error.Message != "" {
		return "", &UploadError{Name: name, Err: errors.New(result.Error.Message)}
	}
	if result.SecureURL == "" {
		return "", &UploadError{Name: name, Err: errors.New("cloudinary returned no url")}
	}
	return result.SecureURL, nil
}

func (s *CloudinaryBlobStore) Delete(ctx context.Context, name string) error {
	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     s.publicID(name),
		ResourceType: "image",
	})
	if err != nil {
		return &UploadError{Name: name, Err: err}
	}
	if result.Error.Message != "" {
		return &UploadError{Name: name, Err: errors.New(result.Error.Message)}
	}
	return nil
}

// publicID drops the extension; Cloudinary derives the format from the bytes.
func (s *CloudinaryBlobStore) publicID(name string) string {
	id := strings.TrimSuffix(name, path.Ext(name))
	if s.folder == "" {
		return id
	}
	return s.folder + "/" + id
}
