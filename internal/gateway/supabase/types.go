package supabase

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Error is an error response returned by Supabase.
type Error struct {
	Code       string
	Message    string
	Details    string
	Hint       string
	StatusCode int
}

// Error returns the service's own message, which is what the pages display.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supabase error %d", e.StatusCode)
	}
	return e.Message
}

// IsConflict reports whether the error describes an already existing resource.
func (e *Error) IsConflict() bool {
	return e.StatusCode == http.StatusConflict ||
		e.Code == "23505" ||
		strings.Contains(strings.ToLower(e.Message), "already exists")
}

// IsUnauthorized reports whether the caller's token or key was rejected.
func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// User is a Supabase Auth user.
type User struct {
	ID               string                 `json:"id"`
	Email            string                 `json:"email"`
	Role             string                 `json:"role,omitempty"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UserMetadata     map[string]interface{} `json:"user_metadata,omitempty"`
}

// Session is a Supabase Auth session.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user"`
}

// Expiry returns the absolute access token expiry.
func (s *Session) Expiry(now time.Time) time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	return now.Add(time.Duration(s.ExpiresIn) * time.Second)
}

// SignUpRequest is the body of an email sign-up.
type SignUpRequest struct {
	Email    string                 `json:"email"`
	Password string                 `json:"password"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// FileObject is an entry returned by the storage list endpoint.
type FileObject struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	CreatedAt *time.Time             `json:"created_at"`
	UpdatedAt *time.Time             `json:"updated_at"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// Size returns the object size reported in its metadata.
func (f FileObject) Size() int64 {
	if v, ok := f.Metadata["size"].(float64); ok {
		return int64(v)
	}
	return 0
}

// SortBy orders a storage listing.
type SortBy struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

// ListRequest is the body of a storage list call.
type ListRequest struct {
	Prefix string  `json:"prefix"`
	Limit  int     `json:"limit,omitempty"`
	Offset int     `json:"offset,omitempty"`
	SortBy *SortBy `json:"sortBy,omitempty"`
}

// UploadOptions are optional upload settings.
type UploadOptions struct {
	ContentType  string
	CacheControl string
	Upsert       bool
}
