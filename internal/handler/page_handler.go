package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"autods/internal/middleware"
	"autods/internal/view"
)

// PageHandler serves static pages.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Landing renders the home page.
func (h *PageHandler) Landing(c echo.Context) error {
	return c.Render(http.StatusOK, view.Landing, view.Page{
		Title:    "Home",
		State:    view.StateIdle,
		SignedIn: middleware.SessionFrom(c) != nil,
	})
}
