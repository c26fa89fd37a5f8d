package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"autods/internal/auth"
	apperrors "autods/internal/errors"
	"autods/internal/logging"
	"autods/internal/middleware"
	"autods/internal/service"
	"autods/internal/view"
)

// AuthHandler serves the sign-up, login and logout pages.
type AuthHandler struct {
	authService  service.AuthService
	cookieSecure bool
	log          *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookieSecure bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookieSecure: cookieSecure, log: log}
}

// SignupRequest is the sign-up form.
type SignupRequest struct {
	Email     string `form:"email" validate:"required,email"`
	Password  string `form:"password" validate:"required"`
	FirstName string `form:"first_name" validate:"required"`
	LastName  string `form:"last_name" validate:"required"`
}

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// SignupForm renders the empty sign-up form.
func (h *AuthHandler) SignupForm(c echo.Context) error {
	return c.Render(http.StatusOK, view.Signup, view.SignupPage{
		Page: view.Page{Title: "Sign Up", State: view.StateIdle},
	})
}

// Signup creates the account and signs the user in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	page := view.SignupPage{
		Page: view.Page{Title: "Sign Up"},
		Form: view.SignupForm{Email: req.Email, FirstName: req.FirstName, LastName: req.LastName},
	}
	if err := c.Validate(&req); err != nil {
		page.Fail(validationMessage(err))
		return c.Render(http.StatusBadRequest, view.Signup, page)
	}

	res, err := h.authService.SignUp(c.Request().Context(), service.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		status, msg := signupFailure(err)
		logging.FromContext(c, h.log).Warn("sign up failed", zap.String("email", req.Email), zap.Error(err))
		page.Fail(msg)
		return c.Render(status, view.Signup, page)
	}

	switch {
	case res.NeedsConfirmation:
		return c.Redirect(http.StatusSeeOther, "/login?confirm=1")
	case res.Session == nil:
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	h.setSessionCookie(c, res.Token, res.ExpiresAt)
	return c.Redirect(http.StatusSeeOther, "/")
}

func signupFailure(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUserInfoUnavailable):
		return http.StatusBadGateway, "Signup succeeded but user info could not be retrieved."
	case errors.Is(err, apperrors.ErrProfileSync):
		return http.StatusInternalServerError, "Profile setup failed: " + apperrors.RootCause(err).Error()
	case errors.Is(err, apperrors.ErrAuthFailure):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Signup failed. Please try again."
	}
}

// LoginForm renders the login form.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, view.Login, view.LoginPage{
		Page:    view.Page{Title: "Login", State: view.StateIdle},
		Confirm: c.QueryParam("confirm") != "",
	})
}

// Login signs the user in and sets the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	page := view.LoginPage{Page: view.Page{Title: "Login"}, Email: req.Email}
	if err := c.Validate(&req); err != nil {
		page.Fail(validationMessage(err))
		return c.Render(http.StatusBadRequest, view.Login, page)
	}

	token, expiresAt, _, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrAuthFailure) {
			page.Fail("Invalid email or password.")
			return c.Render(http.StatusUnauthorized, view.Login, page)
		}
		logging.FromContext(c, h.log).Error("login failed", zap.Error(err))
		page.Fail("Login failed. Please try again.")
		return c.Render(http.StatusInternalServerError, view.Login, page)
	}

	h.setSessionCookie(c, token, expiresAt)
	return c.Redirect(http.StatusSeeOther, "/my-files")
}

// Logout drops the session and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), middleware.SessionFrom(c)); err != nil {
		logging.FromContext(c, h.log).Warn("logout", zap.Error(err))
	}
	h.clearSessionCookie(c)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
