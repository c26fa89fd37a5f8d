package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "autods/internal/errors"
	"autods/internal/logging"
	"autods/internal/middleware"
	"autods/internal/service"
	"autods/internal/view"
)

// FileHandler serves the upload and file list pages.
type FileHandler struct {
	fileService    service.FileService
	uploadMaxBytes int64
	log            *zap.Logger
}

// NewFileHandler creates a new file handler.
func NewFileHandler(fileService service.FileService, uploadMaxBytes int64, log *zap.Logger) *FileHandler {
	return &FileHandler{fileService: fileService, uploadMaxBytes: uploadMaxBytes, log: log}
}

// UploadForm renders the upload page.
func (h *FileHandler) UploadForm(c echo.Context) error {
	return c.Render(http.StatusOK, view.Upload, view.UploadPage{
		Page: view.Page{Title: "Upload CSV File", State: view.StateIdle, SignedIn: middleware.SessionFrom(c) != nil},
	})
}

// Upload stores the submitted "file" under the signed-in user's prefix.
func (h *FileHandler) Upload(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	page := view.UploadPage{Page: view.Page{Title: "Upload CSV File", SignedIn: sess != nil}}

	fh, err := c.FormFile("file")
	if err != nil {
		page.Fail("No file selected.")
		return c.Render(http.StatusBadRequest, view.Upload, page)
	}
	if h.uploadMaxBytes > 0 && fh.Size > h.uploadMaxBytes {
		page.Fail(fmt.Sprintf("Upload failed: file is larger than %d bytes", h.uploadMaxBytes))
		return c.Render(http.StatusRequestEntityTooLarge, view.Upload, page)
	}

	src, err := fh.Open()
	if err != nil {
		page.Fail("Upload failed: " + err.Error())
		return c.Render(http.StatusBadRequest, view.Upload, page)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		page.Fail("Upload failed: " + err.Error())
		return c.Render(http.StatusBadRequest, view.Upload, page)
	}

	stored, err := h.fileService.Upload(c.Request().Context(), sess, fh.Filename, data)
	if err != nil {
		status, msg := uploadFailure(err)
		log := logging.FromContext(c, h.log).With(zap.String("file", fh.Filename), zap.Error(err))
		if sess != nil {
			log = log.With(zap.String("user_id", sess.UserID))
		}
		log.Warn("upload failed")
		page.Fail(msg)
		return c.Render(status, view.Upload, page)
	}

	logging.FromContext(c, h.log).Info("file uploaded",
		zap.String("user_id", sess.UserID),
		zap.String("path", stored.Path),
		zap.Int64("size", stored.Size),
	)
	page.Succeed("✅ Upload successful!")
	return c.Render(http.StatusOK, view.Upload, page)
}

func uploadFailure(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNoFile):
		return http.StatusBadRequest, "No file selected."
	case errors.Is(err, apperrors.ErrInvalidFileType):
		return http.StatusBadRequest, "Please select a valid .csv file."
	case errors.Is(err, apperrors.ErrAuthFailure):
		return http.StatusUnauthorized, "Unable to retrieve user ID."
	case errors.Is(err, apperrors.ErrUploadInProgress):
		return http.StatusConflict, "An upload is already in progress."
	default:
		return http.StatusBadGateway, "Upload failed: " + serviceMessage(err)
	}
}

// serviceMessage prefers the message reported by the storage service over the wrap chain.
func serviceMessage(err error) string {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Msg != "" {
		return appErr.Msg
	}
	return apperrors.RootCause(err).Error()
}

// MyFiles lists the signed-in user's files.
func (h *FileHandler) MyFiles(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		return middleware.RedirectToLogin(c)
	}
	page := view.FilesPage{Page: view.Page{Title: "My Files", SignedIn: true}}

	entries, err := h.fileService.List(c.Request().Context(), sess)
	if err != nil {
		logging.FromContext(c, h.log).Error("list files", zap.String("user_id", sess.UserID), zap.Error(err))
		page.Fail("Could not list files.")
		return c.Render(http.StatusBadGateway, view.Files, page)
	}

	page.Entries = entries
	page.State = view.StateSuccess
	return c.Render(http.StatusOK, view.Files, page)
}
