// Package middleware resolves the signed-in session for page and API routes.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"autods/internal/auth"
	apperrors "autods/internal/errors"
	"autods/internal/logging"
)

const (
	sessionContextKey = "session"
	tokenContextKey   = "session_token"
)

// SessionResolver loads a session by ID and confirms it is still valid.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*auth.Session, error)
}

// SessionFrom returns the session resolved for this request, or nil.
func SessionFrom(c echo.Context) *auth.Session {
	sess, _ := c.Get(sessionContextKey).(*auth.Session)
	return sess
}

// WithSession stores sess on the request context.
func WithSession(c echo.Context, sess *auth.Session) {
	c.Set(sessionContextKey, sess)
}

// RedirectToLogin sends page requests without a session to the login form.
func RedirectToLogin(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/login")
}

// Unauthorized answers API requests without a session.
func Unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: "not authenticated",
		Code:  "AUTH_FAILURE",
	})
}

// RequireSession validates the session token from the cookie or the
// Authorization header, then resolves the session it references. Requests
// without a valid session are handed to onMissing and never reach next.
func RequireSession(jwtService *auth.JWTService, resolver SessionResolver, onMissing echo.HandlerFunc, log *zap.Logger) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey:  jwtService.SigningKey(),
		ContextKey:  tokenContextKey,
		TokenLookup: "cookie:" + auth.SessionCookieName + ",header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return onMissing(c)
		},
	})

	resolve := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get(tokenContextKey).(*jwt.Token)
			if !ok {
				return onMissing(c)
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok || claims.ID == "" {
				return onMissing(c)
			}

			sess, err := resolver.Resolve(c.Request().Context(), claims.ID)
			if err != nil {
				if !errors.Is(err, apperrors.ErrAuthFailure) {
					logging.FromContext(c, log).Error("resolve session", zap.Error(err))
				}
				return onMissing(c)
			}
			WithSession(c, sess)
			return next(c)
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(resolve(next))
	}
}

// OptionalSession resolves the session cookie when one is present and
// always continues to next.
func OptionalSession(jwtService *auth.JWTService, resolver SessionResolver, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(auth.SessionCookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			claims, err := jwtService.ValidateToken(cookie.Value)
			if err != nil {
				return next(c)
			}
			sess, err := resolver.Resolve(c.Request().Context(), claims.ID)
			if err != nil {
				if !errors.Is(err, apperrors.ErrAuthFailure) {
					logging.FromContext(c, log).Warn("resolve session", zap.Error(err))
				}
				return next(c)
			}
			WithSession(c, sess)
			return next(c)
		}
	}
}
