package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelClasses(t *testing.T) {
	assert.ErrorIs(t, ErrMissingURL, ErrMissingInput)
	assert.ErrorIs(t, ErrNoFile, ErrMissingInput)
	assert.ErrorIs(t, ErrInvalidCredentials, ErrAuthFailure)
	assert.ErrorIs(t, ErrNotAuthenticated, ErrAuthFailure)
	assert.ErrorIs(t, ErrUpload, ErrTransfer)
	assert.NotErrorIs(t, ErrUpload, ErrStorage)
}

func TestError_IsMatchesKindAndClass(t *testing.T) {
	cause := errors.New("duplicate key value")
	err := Wrap(ErrUpload, "The resource already exists", cause)

	assert.ErrorIs(t, err, ErrUpload)
	assert.ErrorIs(t, err, ErrTransfer)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrParse)
	assert.Equal(t, "The resource already exists: duplicate key value", err.Error())

	wrapped := fmt.Errorf("upload: %w", err)
	var appErr *Error
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, "The resource already exists", appErr.Msg)
}

func TestError_MessageOnly(t *testing.T) {
	err := Wrap(ErrAuthFailure, "User already registered", nil)
	assert.Equal(t, "User already registered", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestFetchAndParseErrors(t *testing.T) {
	fetchErr := &FetchError{StatusCode: http.StatusNotFound}
	assert.ErrorIs(t, fetchErr, ErrTransfer)
	assert.Equal(t, "fetch file: status 404", fetchErr.Error())

	parseErr := &ParseError{Msg: "no csv data found"}
	assert.ErrorIs(t, parseErr, ErrParse)
	assert.NotErrorIs(t, parseErr, ErrTransfer)
}

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing url", ErrMissingURL, http.StatusBadRequest, "MISSING_URL"},
		{"invalid url", ErrInvalidURL, http.StatusBadRequest, "INVALID_URL"},
		{"no file", ErrNoFile, http.StatusBadRequest, "MISSING_INPUT"},
		{"not authenticated", fmt.Errorf("resolve: %w", ErrNotAuthenticated), http.StatusUnauthorized, "AUTH_FAILURE"},
		{"parse", &ParseError{Msg: "no csv data found"}, http.StatusUnprocessableEntity, "PARSE_FAILURE"},
		{"fetch", &FetchError{StatusCode: 403}, http.StatusBadGateway, "FETCH_FAILURE"},
		{"in progress", ErrUploadInProgress, http.StatusConflict, "UPLOAD_IN_PROGRESS"},
		{"storage", Wrap(ErrStorage, "bucket not found", nil), http.StatusBadGateway, "TRANSFER_FAILURE"},
		{"profile", Wrap(ErrProfileSync, "profile setup failed", errors.New("boom")), http.StatusInternalServerError, "PROFILE_SYNC_FAILURE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.code, httpErr.ToErrorResponse().Code)
		})
	}
}

func TestRootCause(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := Wrap(ErrProfileSync, "", fmt.Errorf("upsert profile: %w", cause))

	assert.Equal(t, cause, RootCause(err))
	assert.Equal(t, ErrNoFile, RootCause(ErrNoFile))
	assert.Equal(t, "missing input: no file selected", RootCause(ErrNoFile).Error())
	assert.Equal(t, ErrTransfer, RootCause(ErrTransfer))
	assert.Nil(t, RootCause(nil))

	wrapped := fmt.Errorf("upload: %w", ErrUploadInProgress)
	assert.Equal(t, ErrUploadInProgress, RootCause(wrapped))
	assert.Equal(t, "transfer failed: upload already in progress", RootCause(wrapped).Error())
}
