package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"autods/internal/errors"
	"autods/internal/logging"
	"autods/internal/metrics"
	"autods/internal/middleware"
	"autods/internal/service"
)

// APIHandler exposes file listing and CSV parsing as JSON.
type APIHandler struct {
	fileService service.FileService
	loader      GridLoader
	log         *zap.Logger
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(fileService service.FileService, loader GridLoader, log *zap.Logger) *APIHandler {
	return &APIHandler{fileService: fileService, loader: loader, log: log}
}

// FileResponse is one listed file. Error is set instead of URL when signing failed.
type FileResponse struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// FileListResponse represents the caller's files, newest first.
type FileListResponse struct {
	Files []FileResponse `json:"files"`
}

// CSVResponse represents a parsed CSV file.
type CSVResponse struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// ListFiles godoc
// @Summary List the caller's CSV files
// @Tags files
// @Produce json
// @Security BearerAuth
// @Success 200 {object} FileListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /files [get]
func (h *APIHandler) ListFiles(c echo.Context) error {
	entries, err := h.fileService.List(c.Request().Context(), middleware.SessionFrom(c))
	if err != nil {
		logging.FromContext(c, h.log).Error("list files", zap.Error(err))
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	resp := FileListResponse{Files: make([]FileResponse, 0, len(entries))}
	for _, e := range entries {
		f := FileResponse{Name: e.Name, Path: e.Path, CreatedAt: e.CreatedAt, URL: e.URL}
		if e.URLErr != nil {
			f.URL, f.Error = "", e.URLErr.Error()
		}
		resp.Files = append(resp.Files, f)
	}
	return c.JSON(http.StatusOK, resp)
}

// ParseCSV godoc
// @Summary Fetch and parse a CSV file
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param url query string true "Signed file URL"
// @Success 200 {object} CSVResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /csv [get]
func (h *APIHandler) ParseCSV(c echo.Context) error {
	grid, err := h.loader.Load(c.Request().Context(), c.QueryParam("url"))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		if httpErr.StatusCode >= http.StatusInternalServerError {
			logging.FromContext(c, h.log).Warn("load csv", zap.Error(err))
		}
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	metrics.ObserveCSVRows(len(grid.Rows))
	body := grid.Body()
	if body == nil {
		body = [][]string{}
	}
	return c.JSON(http.StatusOK, CSVResponse{Header: grid.Header(), Rows: body})
}
