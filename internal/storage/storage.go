// Package storage provides the object stores uploaded CSV files live in.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"autods/internal/config"
	"autods/internal/gateway/supabase"
	"autods/internal/model"
)

const (
	SortByCreatedAt = "created_at"
	SortByName      = "name"
	OrderAsc        = "asc"
	OrderDesc       = "desc"
)

// SortBy orders a listing.
type SortBy struct {
	Column string
	Order  string
}

// ListOptions bound and order a listing.
type ListOptions struct {
	Limit  int
	Offset int
	SortBy SortBy
}

// NewestFirst lists at most limit entries, newest first.
func NewestFirst(limit int) ListOptions {
	return ListOptions{Limit: limit, SortBy: SortBy{Column: SortByCreatedAt, Order: OrderDesc}}
}

// FileStore is an object store scoped to one bucket.
type FileStore interface {
	// Upload stores data at path. An existing object at path is a conflict, not an overwrite.
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	// List returns the files directly under prefix.
	List(ctx context.Context, prefix string, opts ListOptions) ([]model.StoredFile, error)
	// CreateSignedURL returns a time limited read URL for path.
	CreateSignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
	// EnsureBucket creates the bucket when it does not exist yet.
	EnsureBucket(ctx context.Context) error
}

// New builds the FileStore selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config, sb *supabase.Client) (FileStore, error) {
	switch cfg.StorageDriver {
	case "", "supabase":
		if sb == nil {
			return nil, fmt.Errorf("supabase storage requires a supabase client")
		}
		return NewSupabaseStore(sb.Storage(), cfg.StorageBucket), nil
	case "s3":
		return NewS3Store(ctx, S3Options{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.StorageBucket,
		})
	case "minio":
		return NewMinioStore(MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Region:    cfg.S3Region,
			Bucket:    cfg.StorageBucket,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// applyListOptions sorts and pages a listing for backends that cannot do it server side.
func applyListOptions(files []model.StoredFile, opts ListOptions) []model.StoredFile {
	desc := strings.EqualFold(opts.SortBy.Order, OrderDesc)
	less := func(i, j int) bool {
		if opts.SortBy.Column == SortByName {
			return files[i].Name < files[j].Name
		}
		return files[i].CreatedAt.Before(files[j].CreatedAt)
	}
	sort.SliceStable(files, func(i, j int) bool {
		if desc {
			return less(j, i)
		}
		return less(i, j)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(files) {
			return []model.StoredFile{}
		}
		files = files[opts.Offset:]
	}
	if opts.Limit > 0 && len(files) > opts.Limit {
		files = files[:opts.Limit]
	}
	return files
}

func joinPrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
