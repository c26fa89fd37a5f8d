package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"autods/internal/auth"
	"autods/internal/cache"
	apperrors "autods/internal/errors"
	"autods/internal/metrics"
	"autods/internal/model"
	"autods/internal/storage"
)

const (
	uploadGuardTTL = 2 * time.Minute
	signWorkers    = 8
)

// FileService uploads and lists a user's CSV files.
type FileService interface {
	Upload(ctx context.Context, sess *auth.Session, fileName string, data []byte) (*model.StoredFile, error)
	List(ctx context.Context, sess *auth.Session) ([]model.FileEntry, error)
}

// FileServiceOptions tune listing and signing.
type FileServiceOptions struct {
	ListLimit    int
	SignedURLTTL time.Duration
}

type fileService struct {
	store storage.FileStore
	cache *cache.Client
	opts  FileServiceOptions
	log   *zap.Logger
	now   func() time.Time
}

// NewFileService builds a FileService over a store and the in-flight guard cache.
func NewFileService(store storage.FileStore, cache *cache.Client, opts FileServiceOptions, log *zap.Logger) FileService {
	if opts.ListLimit <= 0 {
		opts.ListLimit = 100
	}
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = 10 * time.Minute
	}
	return &fileService{store: store, cache: cache, opts: opts, log: log, now: time.Now}
}

func (s *fileService) guardKey(userID string) string {
	return fmt.Sprintf("inflight:upload:%s", userID)
}

// Upload stores a .csv file under the user's prefix. Only one upload per user runs at a time.
func (s *fileService) Upload(ctx context.Context, sess *auth.Session, fileName string, data []byte) (*model.StoredFile, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, apperrors.ErrNoFile
	}
	name := model.BaseName(fileName)
	if !strings.HasSuffix(name, ".csv") {
		return nil, apperrors.ErrInvalidFileType
	}
	if sess == nil || sess.UserID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	key := s.guardKey(sess.UserID)
	acquired, err := s.cache.SetNX(ctx, key, []byte("1"), uploadGuardTTL)
	if err != nil {
		s.log.Warn("upload guard unavailable", zap.String("user_id", sess.UserID), zap.Error(err))
	}
	if !acquired {
		return nil, apperrors.ErrUploadInProgress
	}
	defer func() { _ = s.cache.Delete(context.WithoutCancel(ctx), key) }()

	at := s.now().UTC()
	path := model.StoragePath(sess.UserID, name, at)
	err = s.store.Upload(ctx, path, data, "text/csv")
	metrics.ObserveGateway("storage.upload", err)
	if err != nil {
		return nil, err
	}

	return &model.StoredFile{
		Name:      strings.TrimPrefix(path, sess.UserID+"/"),
		Path:      path,
		Size:      int64(len(data)),
		CreatedAt: at,
	}, nil
}

// List returns the user's newest files, each with its own signed URL or signing error.
func (s *fileService) List(ctx context.Context, sess *auth.Session) ([]model.FileEntry, error) {
	if sess == nil || sess.UserID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	files, err := s.store.List(ctx, sess.UserID, storage.NewestFirst(s.opts.ListLimit))
	metrics.ObserveGateway("storage.list", err)
	if err != nil {
		return nil, err
	}

	entries := make([]model.FileEntry, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(signWorkers)
	for i, f := range files {
		i, f := i, f
		entries[i] = model.FileEntry{Name: f.Name, Path: f.Path, CreatedAt: f.CreatedAt}
		g.Go(func() error {
			url, err := s.store.CreateSignedURL(gctx, f.Path, s.opts.SignedURLTTL)
			metrics.ObserveGateway("storage.sign", err)
			if err != nil {
				s.log.Warn("sign file url",
					zap.String("user_id", sess.UserID),
					zap.String("path", f.Path),
					zap.Error(err),
				)
				entries[i].URLErr = err
				return nil
			}
			entries[i].URL = url
			return nil
		})
	}
	_ = g.Wait()
	return entries, nil
}
