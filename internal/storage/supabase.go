package storage

import (
	"context"
	"errors"
	"time"

	apperrors "autods/internal/errors"
	"autods/internal/gateway/supabase"
	"autods/internal/model"
)

// SupabaseStore keeps files in a Supabase Storage bucket.
type SupabaseStore struct {
	storage *supabase.StorageClient
	bucket  string
}

var _ FileStore = (*SupabaseStore)(nil)

func NewSupabaseStore(storage *supabase.StorageClient, bucket string) *SupabaseStore {
	return &SupabaseStore{storage: storage, bucket: bucket}
}

func (s *SupabaseStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	err := s.storage.Upload(ctx, s.bucket, path, data, &supabase.UploadOptions{ContentType: contentType})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrUpload, message(err), err)
	}
	return nil
}

func (s *SupabaseStore) List(ctx context.Context, prefix string, opts ListOptions) ([]model.StoredFile, error) {
	req := supabase.ListRequest{
		Prefix: prefix,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	if opts.SortBy.Column != "" {
		req.SortBy = &supabase.SortBy{Column: opts.SortBy.Column, Order: opts.SortBy.Order}
	}

	objects, err := s.storage.List(ctx, s.bucket, req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, message(err), err)
	}

	files := make([]model.StoredFile, 0, len(objects))
	for _, obj := range objects {
		// folders come back without an ID
		if obj.ID == "" {
			continue
		}
		f := model.StoredFile{
			Name: obj.Name,
			Path: joinPrefix(prefix) + obj.Name,
			Size: obj.Size(),
		}
		if obj.CreatedAt != nil {
			f.CreatedAt = *obj.CreatedAt
		}
		files = append(files, f)
	}
	return files, nil
}

func (s *SupabaseStore) CreateSignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	signed, err := s.storage.CreateSignedURL(ctx, s.bucket, path, int(ttl.Seconds()))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrStorage, message(err), err)
	}
	return signed, nil
}

func (s *SupabaseStore) EnsureBucket(ctx context.Context) error {
	err := s.storage.CreateBucket(ctx, s.bucket, false)
	var sbErr *supabase.Error
	if errors.As(err, &sbErr) && sbErr.IsConflict() {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, message(err), err)
	}
	return nil
}

// message returns the backend's own message, which is what users get to see.
func message(err error) string {
	var sbErr *supabase.Error
	if errors.As(err, &sbErr) {
		return sbErr.Message
	}
	return ""
}
