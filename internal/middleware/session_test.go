package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"autods/internal/auth"
	apperrors "autods/internal/errors"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, sessionID string) (*auth.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func signedToken(t *testing.T, svc *auth.JWTService, id string) string {
	t.Helper()
	token, _, err := svc.GenerateSessionToken(&auth.Session{ID: id, UserID: "u1", Email: "ada@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func newProtected(svc *auth.JWTService, resolver SessionResolver) *echo.Echo {
	e := echo.New()
	e.GET("/my-files", func(c echo.Context) error {
		return c.String(http.StatusOK, SessionFrom(c).UserID)
	}, RequireSession(svc, resolver, RedirectToLogin, zap.NewNop()))
	e.GET("/api/files", func(c echo.Context) error {
		return c.String(http.StatusOK, SessionFrom(c).UserID)
	}, RequireSession(svc, resolver, Unauthorized, zap.NewNop()))
	return e
}

func TestRequireSession(t *testing.T) {
	svc := auth.NewJWTService("test-secret", time.Hour)
	other := auth.NewJWTService("other-secret", time.Hour)

	tests := []struct {
		name           string
		path           string
		setupRequest   func(r *http.Request)
		setupMock      func(m *MockResolver)
		expectedStatus int
		expectedBody   string
		expectedLoc    string
	}{
		{
			name:           "no cookie redirects to login",
			path:           "/my-files",
			setupRequest:   func(r *http.Request) {},
			expectedStatus: http.StatusSeeOther,
			expectedLoc:    "/login",
		},
		{
			name: "valid cookie",
			path: "/my-files",
			setupRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: signedToken(t, svc, "sid")})
			},
			setupMock: func(m *MockResolver) {
				m.On("Resolve", mock.Anything, "sid").Return(&auth.Session{ID: "sid", UserID: "u1"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "u1",
		},
		{
			name: "token signed with another key",
			path: "/my-files",
			setupRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: signedToken(t, other, "sid")})
			},
			expectedStatus: http.StatusSeeOther,
			expectedLoc:    "/login",
		},
		{
			name: "session no longer exists",
			path: "/my-files",
			setupRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: signedToken(t, svc, "sid")})
			},
			setupMock: func(m *MockResolver) {
				m.On("Resolve", mock.Anything, "sid").Return(nil, apperrors.ErrNotAuthenticated)
			},
			expectedStatus: http.StatusSeeOther,
			expectedLoc:    "/login",
		},
		{
			name: "bearer header on the api",
			path: "/api/files",
			setupRequest: func(r *http.Request) {
				r.Header.Set(echo.HeaderAuthorization, "Bearer "+signedToken(t, svc, "sid"))
			},
			setupMock: func(m *MockResolver) {
				m.On("Resolve", mock.Anything, "sid").Return(&auth.Session{ID: "sid", UserID: "u1"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "u1",
		},
		{
			name:           "api without token",
			path:           "/api/files",
			setupRequest:   func(r *http.Request) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"code":"AUTH_FAILURE"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(MockResolver)
			if tt.setupMock != nil {
				tt.setupMock(resolver)
			}
			e := newProtected(svc, resolver)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			tt.setupRequest(req)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedBody)
			}
			if tt.expectedLoc != "" {
				assert.Equal(t, tt.expectedLoc, rec.Header().Get(echo.HeaderLocation))
			}
			resolver.AssertExpectations(t)
			if tt.setupMock == nil {
				resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestOptionalSession(t *testing.T) {
	svc := auth.NewJWTService("test-secret", time.Hour)
	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, "sid").Return(&auth.Session{ID: "sid", UserID: "u1"}, nil)

	e := echo.New()
	e.GET("/upload-csv", func(c echo.Context) error {
		if sess := SessionFrom(c); sess != nil {
			return c.String(http.StatusOK, sess.UserID)
		}
		return c.String(http.StatusOK, "anonymous")
	}, OptionalSession(svc, resolver, zap.NewNop()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload-csv", nil))
	assert.Equal(t, "anonymous", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/upload-csv", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "garbage"})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "anonymous", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/upload-csv", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: signedToken(t, svc, "sid")})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "u1", rec.Body.String())
}
