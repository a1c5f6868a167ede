package service

import (
	"context"
	"fmt"
	"time"

	"github.com/filevault/filevault/internal/domain"
	"github.com/filevault/filevault/internal/media"
	"github.com/filevault/filevault/internal/store"
	"github.com/filevault/filevault/pkg/idx"
)

// FileService owns file metadata: records live here, bytes live on the
// media host.
type FileService struct {
	Store store.Store
	Media media.Host
}

// Upload pushes the payload to the media host and records the returned
// descriptor against the owning user.
func (s *FileService) Upload(ctx context.Context, userID string, asset *media.Asset) (domain.File, error) {
	if userID == "" {
		return domain.File{}, ErrMissingFields
	}
	if asset == nil {
		return domain.File{}, fmt.Errorf("%w: file", ErrMissingFields)
	}

	// The owner must resolve before anything is uploaded.
	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		return domain.File{}, err
	}

	obj, err := s.Media.Upload(ctx, *asset)
	if err != nil {
		return domain.File{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	file := domain.File{
		ID:     idx.New().String(),
		UserID: userID,
		Details: domain.FileDetails{
			Name:       obj.OriginalName,
			URL:        obj.URL,
			PublicID:   obj.PublicID,
			Type:       obj.Format,
			Size:       obj.Bytes,
			UploadedAt: time.Now().UTC(),
		},
	}

	if err := s.Store.Files().CreateFile(ctx, file); err != nil {
		return domain.File{}, err
	}

	return s.Store.Files().GetFileByPublicID(ctx, obj.PublicID)
}

// Rename sets the descriptor's display name, addressed by media public id.
func (s *FileService) Rename(ctx context.Context, publicID, name string) (domain.File, error) {
	if publicID == "" || name == "" {
		return domain.File{}, ErrMissingFields
	}

	if err := s.Store.Files().UpdateFileName(ctx, publicID, name); err != nil {
		return domain.File{}, err // store.ErrNotFound when unknown
	}

	return s.Store.Files().GetFileByPublicID(ctx, publicID)
}

// Delete removes the record and then asks the media host to drop the
// object. A media-side failure is reported even though the record is
// already gone; the asset is orphaned on the host in that case.
func (s *FileService) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return ErrMissingFields
	}

	if err := s.Store.Files().DeleteFileByPublicID(ctx, publicID); err != nil {
		return err // store.ErrNotFound when unknown; nothing touched
	}

	ok, err := s.Media.Delete(ctx, publicID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMediaDelete, err)
	}
	if !ok {
		return ErrMediaDelete
	}
	return nil
}

// Search returns the user's files whose name contains the pattern,
// case-insensitively. An empty result is reported as not found.
func (s *FileService) Search(ctx context.Context, userID, pattern string) ([]domain.File, error) {
	if userID == "" {
		return nil, ErrMissingFields
	}

	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	files, err := s.Store.Files().SearchFilesByName(ctx, userID, pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, store.ErrNotFound
	}
	return files, nil
}

// ListByUser returns every file the user owns.
func (s *FileService) ListByUser(ctx context.Context, userID string) ([]domain.File, error) {
	if userID == "" {
		return nil, ErrMissingFields
	}
	return s.Store.Files().ListFilesByUser(ctx, userID)
}
