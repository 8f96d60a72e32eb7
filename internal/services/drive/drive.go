// Package drive uploads finished artifacts to a Google Drive folder.
package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"mp4creator/internal/services"
	"mp4creator/internal/services/googleauth"
)

// File describes an uploaded file.
type File struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
	Link     string
}

// Uploader creates files inside one folder.
type Uploader struct {
	service  *drivev3.Service
	folderID string
}

// New authenticates with the service account key at keyPath.
func New(ctx context.Context, keyPath, folderID string, extra ...option.ClientOption) (*Uploader, error) {
	opts, err := googleauth.ClientOptions(ctx, keyPath, []string{drivev3.DriveFileScope}, extra...)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, folderID, opts...)
}

// NewWithOptions builds an uploader from ready client options.
func NewWithOptions(ctx context.Context, folderID string, opts ...option.ClientOption) (*Uploader, error) {
	folderID = strings.TrimSpace(folderID)
	if folderID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "drive", "drive_folder_id is not set", nil)
	}
	svc, err := drivev3.NewService(ctx, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "drive", "create service", err)
	}
	return &Uploader{service: svc, folderID: folderID}, nil
}

// Upload streams path into the folder under its base name.
func (u *Uploader) Upload(ctx context.Context, path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("drive upload: %w", err)
	}
	defer f.Close()

	meta := &drivev3.File{Name: filepath.Base(path), Parents: []string{u.folderID}}
	created, err := u.service.Files.Create(meta).
		Media(f).
		Fields("id, name, size, mimeType, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return File{}, services.Wrap(services.ErrTransient, "upload", "drive", filepath.Base(path), err)
	}
	return File{
		ID:       created.Id,
		Name:     created.Name,
		MimeType: created.MimeType,
		Size:     created.Size,
		Link:     created.WebViewLink,
	}, nil
}
