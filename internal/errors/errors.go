package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingInput is returned when a required file or URL was not supplied.
	ErrMissingInput = errors.New("missing input")
	// ErrAuthFailure is returned when credentials or the session are invalid.
	ErrAuthFailure = errors.New("authentication failed")
	// ErrTransfer is returned when an upload, listing or fetch does not succeed.
	ErrTransfer = errors.New("transfer failed")
	// ErrParse is returned when CSV text cannot be tokenized into rows.
	ErrParse = errors.New("csv parse failed")
	// ErrProfileSync is returned when an identity was created but its profile row was not.
	ErrProfileSync = errors.New("profile setup failed")
)

var (
	ErrMissingURL      = fmt.Errorf("%w: missing file url", ErrMissingInput)
	ErrInvalidURL      = fmt.Errorf("%w: file url not allowed", ErrMissingInput)
	ErrNoFile          = fmt.Errorf("%w: no file selected", ErrMissingInput)
	ErrInvalidFileType = fmt.Errorf("%w: not a .csv file", ErrMissingInput)

	ErrNotAuthenticated   = fmt.Errorf("%w: not authenticated", ErrAuthFailure)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrAuthFailure)

	ErrUpload           = fmt.Errorf("%w: upload failed", ErrTransfer)
	ErrStorage          = fmt.Errorf("%w: storage request failed", ErrTransfer)
	ErrUploadInProgress = fmt.Errorf("%w: upload already in progress", ErrTransfer)
)

// Error attaches a message from an external service to one of the sentinel classes above.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

// Wrap builds an *Error of the given kind.
func Wrap(kind error, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg != "" && e.Msg != e.Err.Error() {
		return e.Msg + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

// Is reports whether target is the error's kind or any class that kind belongs to.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && (target == e.Kind || errors.Is(e.Kind, target))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RootCause returns the innermost error of a wrap chain. It stops short of the
// class sentinels so ErrNoFile stays "missing input: no file selected".
func RootCause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil || isClass(next) {
			return err
		}
		err = next
	}
	return nil
}

func isClass(err error) bool {
	switch err {
	case ErrMissingInput, ErrAuthFailure, ErrTransfer, ErrParse, ErrProfileSync:
		return true
	}
	return false
}

// FetchError is returned when a file could not be retrieved over HTTP.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch file: status %d", e.StatusCode)
	}
	return fmt.Sprintf("fetch file: %v", e.Err)
}

func (e *FetchError) Is(target error) bool {
	return target == ErrTransfer
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError is returned when fetched text does not yield a usable grid.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "parse csv: " + e.Err.Error()
	}
	return "parse csv: " + e.Msg
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var fetchErr *FetchError
	switch {
	case errors.Is(err, ErrMissingURL):
		return NewHTTPError(http.StatusBadRequest, "missing file url", "MISSING_URL")
	case errors.Is(err, ErrInvalidURL):
		return NewHTTPError(http.StatusBadRequest, "file url not allowed", "INVALID_URL")
	case errors.Is(err, ErrMissingInput):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "MISSING_INPUT")
	case errors.Is(err, ErrAuthFailure):
		return NewHTTPError(http.StatusUnauthorized, "not authenticated", "AUTH_FAILURE")
	case errors.Is(err, ErrParse):
		return NewHTTPError(http.StatusUnprocessableEntity, err.Error(), "PARSE_FAILURE")
	case errors.As(err, &fetchErr):
		return NewHTTPError(http.StatusBadGateway, err.Error(), "FETCH_FAILURE")
	case errors.Is(err, ErrUploadInProgress):
		return NewHTTPError(http.StatusConflict, err.Error(), "UPLOAD_IN_PROGRESS")
	case errors.Is(err, ErrTransfer):
		return NewHTTPError(http.StatusBadGateway, "storage request failed", "TRANSFER_FAILURE")
	case errors.Is(err, ErrProfileSync):
		return NewHTTPError(http.StatusInternalServerError, "profile setup failed", "PROFILE_SYNC_FAILURE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
