package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apperrors "autods/internal/errors"
	"autods/internal/model"
)

// MinioOptions configure a MinioStore.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
}

// MinioStore keeps files in a MinIO bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	region string
}

var _ FileStore = (*MinioStore)(nil)

func NewMinioStore(opts MinioOptions) (*MinioStore, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioStore{client: client, bucket: opts.Bucket, region: opts.Region}, nil
}

func (s *MinioStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return apperrors.Wrap(apperrors.ErrUpload, "The resource already exists", nil)
	}
	if code := minio.ToErrorResponse(err).Code; code != "NoSuchKey" {
		return apperrors.Wrap(apperrors.ErrUpload, minioMessage(err), err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrUpload, minioMessage(err), err)
	}
	return nil
}

func (s *MinioStore) List(ctx context.Context, prefix string, opts ListOptions) ([]model.StoredFile, error) {
	var files []model.StoredFile
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: joinPrefix(prefix)}) {
		if obj.Err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, minioMessage(obj.Err), obj.Err)
		}
		files = append(files, model.StoredFile{
			Name:      path.Base(obj.Key),
			Path:      obj.Key,
			Size:      obj.Size,
			CreatedAt: obj.LastModified,
		})
	}
	return applyListOptions(files, opts), nil
}

func (s *MinioStore) CreateSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrStorage, "could not sign url", err)
	}
	return u.String(), nil
}

func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, minioMessage(err), err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, minioMessage(err), err)
	}
	return nil
}

func minioMessage(err error) string {
	if resp := minio.ToErrorResponse(err); resp.Message != "" {
		return resp.Message
	}
	return ""
}
