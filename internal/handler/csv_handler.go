package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"autods/internal/csvgrid"
	apperrors "autods/internal/errors"
	"autods/internal/logging"
	"autods/internal/metrics"
	"autods/internal/middleware"
	"autods/internal/model"
	"autods/internal/view"
)

// GridLoader fetches and parses a CSV file.
type GridLoader interface {
	Load(ctx context.Context, rawURL string) (model.Grid, error)
}

// CSVHandler serves the CSV viewer.
type CSVHandler struct {
	loader GridLoader
	log    *zap.Logger
}

// NewCSVHandler creates a new CSV handler.
func NewCSVHandler(loader GridLoader, log *zap.Logger) *CSVHandler {
	return &CSVHandler{loader: loader, log: log}
}

// EditCSV renders the file at the "url" query parameter as a table.
func (h *CSVHandler) EditCSV(c echo.Context) error {
	name := c.QueryParam("name")
	page := view.EditPage{
		Page: view.Page{Title: "Editing " + name, SignedIn: middleware.SessionFrom(c) != nil},
		Name: name,
	}

	grid, err := h.loader.Load(c.Request().Context(), c.QueryParam("url"))
	if err != nil {
		status, msg := csvFailure(err)
		if status >= http.StatusInternalServerError {
			logging.FromContext(c, h.log).Warn("load csv", zap.String("name", name), zap.Error(err))
		}
		page.Fail(msg)
		return c.Render(status, view.EditCSV, page)
	}

	metrics.ObserveCSVRows(len(grid.Rows))
	page.Grid = grid
	page.State = view.StateSuccess
	return c.Render(http.StatusOK, view.EditCSV, page)
}

func csvFailure(err error) (int, string) {
	var fetchErr *apperrors.FetchError
	var parseErr *apperrors.ParseError
	switch {
	case errors.Is(err, apperrors.ErrMissingURL):
		return http.StatusBadRequest, "Missing file URL."
	case errors.Is(err, apperrors.ErrInvalidURL):
		return http.StatusBadRequest, "File URL is not allowed."
	case errors.As(err, &fetchErr):
		if fetchErr.StatusCode != 0 {
			return http.StatusBadGateway, fmt.Sprintf("Failed to fetch file. Status: %d", fetchErr.StatusCode)
		}
		return http.StatusBadGateway, "Error loading CSV: " + fetchErr.Err.Error()
	case errors.Is(err, csvgrid.ErrNoData):
		return http.StatusUnprocessableEntity, "No CSV data found."
	case errors.As(err, &parseErr):
		if parseErr.Err != nil {
			return http.StatusUnprocessableEntity, "CSV parse error: " + parseErr.Err.Error()
		}
		return http.StatusUnprocessableEntity, "CSV parse error: " + parseErr.Msg
	default:
		return http.StatusInternalServerError, "Error loading CSV: " + err.Error()
	}
}
