package csvgrid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "autods/internal/errors"
	"autods/internal/model"
)

// DefaultMaxBytes caps the size of a fetched file.
const DefaultMaxBytes = 10 << 20

// Options configure a Loader.
type Options struct {
	Delimiter rune
	Ragged    RaggedPolicy
	MaxBytes  int64
	// AllowedHosts restricts fetches to these hosts. A leading dot matches any
	// subdomain. An empty list allows every host.
	AllowedHosts []string
}

// Loader fetches a CSV file over HTTP and parses it.
type Loader struct {
	client *http.Client
	opts   Options
}

func NewLoader(client *http.Client, opts Options) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Ragged == "" {
		opts.Ragged = RaggedKeep
	}
	l := &Loader{opts: opts}
	// Redirect targets go through the same host check as the first request.
	c := *client
	next := client.CheckRedirect
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if !l.hostAllowed(req.URL.Hostname()) {
			return apperrors.ErrInvalidURL
		}
		if next != nil {
			return next(req, via)
		}
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}
	l.client = &c
	return l
}

// Load fetches rawURL and parses the body. An empty URL fails before any request is made.
func (l *Loader) Load(ctx context.Context, rawURL string) (model.Grid, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return model.Grid{}, apperrors.ErrMissingURL
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.Grid{}, apperrors.ErrInvalidURL
	}
	if !l.hostAllowed(u.Hostname()) {
		return model.Grid{}, apperrors.ErrInvalidURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return model.Grid{}, &apperrors.FetchError{Err: err}
	}
	resp, err := l.client.Do(req)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidURL) {
			return model.Grid{}, apperrors.ErrInvalidURL
		}
		return model.Grid{}, &apperrors.FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Grid{}, &apperrors.FetchError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.opts.MaxBytes+1))
	if err != nil {
		return model.Grid{}, &apperrors.FetchError{Err: err}
	}
	if int64(len(body)) > l.opts.MaxBytes {
		return model.Grid{}, &apperrors.FetchError{Err: fmt.Errorf("file larger than %d bytes", l.opts.MaxBytes)}
	}

	return Parse(string(body), l.opts.Delimiter, l.opts.Ragged)
}

func (l *Loader) hostAllowed(host string) bool {
	if len(l.opts.AllowedHosts) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, allowed := range l.opts.AllowedHosts {
		allowed = strings.ToLower(allowed)
		if strings.HasPrefix(allowed, ".") {
			if strings.HasSuffix(host, allowed) || host == allowed[1:] {
				return true
			}
			continue
		}
		if host == allowed {
			return true
		}
	}
	return false
}
