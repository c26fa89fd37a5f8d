package model

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// StoredFile is an object found under a user's prefix in the bucket.
type StoredFile struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// FileEntry is a listed file together with the outcome of signing its URL.
type FileEntry struct {
	Name      string
	Path      string
	CreatedAt time.Time
	URL       string
	URLErr    error
}

// Available reports whether the entry has a usable signed URL.
func (e FileEntry) Available() bool {
	return e.URLErr == nil && e.URL != ""
}

// StoragePath returns the object key for a file uploaded by userID at the given time.
func StoragePath(userID, fileName string, at time.Time) string {
	return fmt.Sprintf("%s/%d_%s", userID, at.UnixMilli(), BaseName(fileName))
}

// BaseName strips any client supplied directory from an uploaded file name.
func BaseName(fileName string) string {
	return path.Base(strings.ReplaceAll(fileName, `\`, "/"))
}
