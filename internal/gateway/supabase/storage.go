package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// StorageClient handles Supabase Storage operations. Every call uses the service role key.
type StorageClient struct {
	client *Client
}

// Upload stores data at path in bucket.
func (s *StorageClient) Upload(ctx context.Context, bucket, path string, data []byte, opts *UploadOptions) error {
	headers := map[string]string{"Content-Type": "application/octet-stream"}
	if opts != nil {
		if opts.ContentType != "" {
			headers["Content-Type"] = opts.ContentType
		}
		if opts.CacheControl != "" {
			headers["Cache-Control"] = opts.CacheControl
		}
		headers["x-upsert"] = strconv.FormatBool(opts.Upsert)
	}

	urlPath := fmt.Sprintf("%s/object/%s/%s", s.client.storageURL, bucket, escapePath(path))
	respBody, statusCode, err := s.client.requestWithServiceKey(ctx, http.MethodPost, urlPath, data, headers)
	if err != nil {
		return err
	}
	if statusCode >= 400 {
		return parseError(respBody, statusCode)
	}
	return nil
}

// List lists objects under a prefix in bucket.
func (s *StorageClient) List(ctx context.Context, bucket string, req ListRequest) ([]FileObject, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	urlPath := fmt.Sprintf("%s/object/list/%s", s.client.storageURL, bucket)
	respBody, statusCode, err := s.client.requestWithServiceKey(ctx, http.MethodPost, urlPath, body, nil)
	if err != nil {
		return nil, err
	}
	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	var files []FileObject
	if err := json.Unmarshal(respBody, &files); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return files, nil
}

// CreateSignedURL returns a URL granting read access to path for expiresIn seconds.
func (s *StorageClient) CreateSignedURL(ctx context.Context, bucket, path string, expiresIn int) (string, error) {
	body, err := json.Marshal(map[string]int{"expiresIn": expiresIn})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	urlPath := fmt.Sprintf("%s/object/sign/%s/%s", s.client.storageURL, bucket, escapePath(path))
	respBody, statusCode, err := s.client.requestWithServiceKey(ctx, http.MethodPost, urlPath, body, nil)
	if err != nil {
		return "", err
	}
	if statusCode >= 400 {
		return "", parseError(respBody, statusCode)
	}

	var result struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if result.SignedURL == "" {
		return "", fmt.Errorf("empty signed url for %s", path)
	}
	return s.client.storageURL + result.SignedURL, nil
}

// CreateBucket creates a bucket.
func (s *StorageClient) CreateBucket(ctx context.Context, id string, public bool) error {
	body, err := json.Marshal(map[string]interface{}{
		"id":     id,
		"name":   id,
		"public": public,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	respBody, statusCode, err := s.client.requestWithServiceKey(ctx, http.MethodPost, s.client.storageURL+"/bucket", body, nil)
	if err != nil {
		return err
	}
	if statusCode >= 400 {
		return parseError(respBody, statusCode)
	}
	return nil
}
