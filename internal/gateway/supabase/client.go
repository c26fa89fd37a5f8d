// Package supabase is a small REST client for the Supabase Auth, Storage and PostgREST APIs.
package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Config configures a Client.
type Config struct {
	ProjectURL string
	AnonKey    string
	ServiceKey string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is the Supabase client. Sub-clients share its HTTP client and keys.
type Client struct {
	httpClient *http.Client
	anonKey    string
	serviceKey string

	baseURL    string
	authURL    string
	storageURL string
	restURL    string

	auth     *AuthClient
	storage  *StorageClient
	database *DatabaseClient
}

// New creates a new Supabase client.
func New(cfg Config) (*Client, error) {
	if cfg.ProjectURL == "" {
		return nil, fmt.Errorf("project URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("anon key is required")
	}

	baseURL := strings.TrimRight(cfg.ProjectURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid project URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		httpClient: httpClient,
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		baseURL:    baseURL,
		authURL:    baseURL + "/auth/v1",
		storageURL: baseURL + "/storage/v1",
		restURL:    baseURL + "/rest/v1",
	}
	c.auth = &AuthClient{client: c}
	c.storage = &StorageClient{client: c}
	c.database = &DatabaseClient{client: c}
	return c, nil
}

func (c *Client) Auth() *AuthClient {
	return c.auth
}

func (c *Client) Storage() *StorageClient {
	return c.storage
}

func (c *Client) Database() *DatabaseClient {
	return c.database
}

// request performs an HTTP request with the anon key.
func (c *Client) request(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) ([]byte, int, error) {
	return c.do(ctx, method, rawURL, body, headers, c.anonKey, c.anonKey)
}

// requestWithServiceKey performs an HTTP request with the service role key.
func (c *Client) requestWithServiceKey(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) ([]byte, int, error) {
	if c.serviceKey == "" {
		return nil, 0, fmt.Errorf("service key not configured")
	}
	return c.do(ctx, method, rawURL, body, headers, c.serviceKey, c.serviceKey)
}

// requestWithToken performs an HTTP request on behalf of a signed-in user.
func (c *Client) requestWithToken(ctx context.Context, method, rawURL string, body []byte, headers map[string]string, accessToken string) ([]byte, int, error) {
	return c.do(ctx, method, rawURL, body, headers, c.anonKey, accessToken)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, headers map[string]string, apiKey, bearer string) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// parseError parses an error response from any of the Supabase APIs.
func parseError(body []byte, statusCode int) error {
	if !gjson.ValidBytes(body) {
		return &Error{
			Code:       "unknown",
			Message:    strings.TrimSpace(string(body)),
			StatusCode: statusCode,
		}
	}

	res := gjson.ParseBytes(body)
	msg := firstString(res, "msg", "message", "error_description", "error")
	if msg == "" {
		msg = http.StatusText(statusCode)
	}

	return &Error{
		Code:       firstString(res, "error_code", "code", "statusCode"),
		Message:    msg,
		Details:    res.Get("details").String(),
		Hint:       res.Get("hint").String(),
		StatusCode: statusCode,
	}
}

func firstString(res gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := res.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// escapePath escapes each segment of an object path, keeping the separators.
func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
