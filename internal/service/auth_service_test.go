package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"autods/internal/auth"
	apperrors "autods/internal/errors"
	"autods/internal/model"
)

// MockIdentityProvider is a mock implementation of auth.IdentityProvider.
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password string) (*auth.Identity, *auth.Tokens, error) {
	args := m.Called(ctx, email, password)
	var ident *auth.Identity
	if v := args.Get(0); v != nil {
		ident = v.(*auth.Identity)
	}
	var tokens *auth.Tokens
	if v := args.Get(1); v != nil {
		tokens = v.(*auth.Tokens)
	}
	return ident, tokens, args.Error(2)
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (*auth.Identity, *auth.Tokens, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*auth.Identity), args.Get(1).(*auth.Tokens), args.Error(2)
}

func (m *MockIdentityProvider) GetUser(ctx context.Context, accessToken string) (*auth.Identity, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Identity), args.Error(1)
}

func (m *MockIdentityProvider) Refresh(ctx context.Context, refreshToken string) (*auth.Tokens, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Tokens), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *MockIdentityProvider) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProfileRepository is a mock implementation of repository.ProfileRepository.
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Upsert(ctx context.Context, profile *model.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSessionStore is a mock implementation of auth.SessionStoreInterface.
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Save(ctx context.Context, sess *auth.Session, ttl time.Duration) error {
	args := m.Called(ctx, sess, ttl)
	return args.Error(0)
}

func (m *MockSessionStore) Get(ctx context.Context, id string) (*auth.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockSessionStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type authFixture struct {
	identity *MockIdentityProvider
	profiles *MockProfileRepository
	sessions *MockSessionStore
	jwt      *auth.JWTService
	logs     *observer.ObservedLogs
	svc      *authService
}

func newAuthFixture() *authFixture {
	core, logs := observer.New(zap.DebugLevel)
	f := &authFixture{
		identity: new(MockIdentityProvider),
		profiles: new(MockProfileRepository),
		sessions: new(MockSessionStore),
		jwt:      auth.NewJWTService("test-secret", time.Hour),
		logs:     logs,
	}
	f.svc = NewAuthService(f.identity, f.profiles, f.sessions, f.jwt, zap.New(core)).(*authService)
	return f
}

func (f *authFixture) assertExpectations(t *testing.T) {
	f.identity.AssertExpectations(t)
	f.profiles.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
}

var (
	testIdentity = &auth.Identity{ID: "7d8a3c1e-0000-4000-8000-000000000001", Email: "ada@example.com"}
	testTokens   = &auth.Tokens{AccessToken: "access", RefreshToken: "refresh", ExpiresAt: time.Now().Add(time.Hour)}
	testSignUp   = SignUpInput{Email: "ada@example.com", Password: "secret123", FirstName: "Ada", LastName: "Lovelace"}
)

func TestAuthService_SignUp(t *testing.T) {
	profileErr := errors.New(`duplicate key value violates unique constraint "User_email_id_key"`)

	tests := []struct {
		name          string
		setupMocks    func(f *authFixture)
		expectedError error
		check         func(t *testing.T, f *authFixture, res *SignUpResult, err error)
	}{
		{
			name: "successful sign up opens a session",
			setupMocks: func(f *authFixture) {
				f.identity.On("SignUp", mock.Anything, testSignUp.Email, testSignUp.Password).Return(testIdentity, testTokens, nil)
				f.identity.On("GetUser", mock.Anything, "access").Return(testIdentity, nil)
				f.profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(p *model.Profile) bool {
					return p.ID == testIdentity.ID && p.Email == testSignUp.Email &&
						p.FirstName == "Ada" && p.LastName == "Lovelace"
				})).Return(nil)
				f.sessions.On("Save", mock.Anything, mock.AnythingOfType("*auth.Session"), time.Hour).Return(nil)
			},
			check: func(t *testing.T, f *authFixture, res *SignUpResult, err error) {
				require.NotNil(t, res.Session)
				assert.Equal(t, testIdentity.ID, res.Session.UserID)
				assert.False(t, res.NeedsConfirmation)

				claims, err := f.jwt.ValidateToken(res.Token)
				require.NoError(t, err)
				assert.Equal(t, res.Session.ID, claims.ID)
			},
		},
		{
			name: "confirmation pending uses the created identity",
			setupMocks: func(f *authFixture) {
				f.identity.On("SignUp", mock.Anything, testSignUp.Email, testSignUp.Password).Return(testIdentity, nil, nil)
				f.profiles.On("Upsert", mock.Anything, mock.AnythingOfType("*model.Profile")).Return(nil)
			},
			check: func(t *testing.T, f *authFixture, res *SignUpResult, err error) {
				assert.True(t, res.NeedsConfirmation)
				assert.Nil(t, res.Session)
				f.identity.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
			},
		},
		{
			name: "identity service rejects sign up",
			setupMocks: func(f *authFixture) {
				f.identity.On("SignUp", mock.Anything, testSignUp.Email, testSignUp.Password).
					Return(nil, nil, apperrors.Wrap(apperrors.ErrAuthFailure, "User already registered", nil))
			},
			expectedError: apperrors.ErrAuthFailure,
			check: func(t *testing.T, f *authFixture, res *SignUpResult, err error) {
				assert.Equal(t, "User already registered", err.Error())
				f.profiles.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
			},
		},
		{
			name: "user info unavailable after sign up",
			setupMocks: func(f *authFixture) {
				f.identity.On("SignUp", mock.Anything, testSignUp.Email, testSignUp.Password).Return(testIdentity, testTokens, nil)
				f.identity.On("GetUser", mock.Anything, "access").Return(nil, apperrors.ErrNotAuthenticated)
			},
			expectedError: ErrUserInfoUnavailable,
			check: func(t *testing.T, f *authFixture, res *SignUpResult, err error) {
				f.profiles.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
			},
		},
		{
			name: "profile failure deletes the identity",
			setupMocks: func(f *authFixture) {
				f.identity.On("SignUp", mock.Anything, testSignUp.Email, testSignUp.Password).Return(testIdentity, testTokens, nil)
				f.identity.On("GetUser", mock.Anything, "access").Return(testIdentity, nil)
				f.profiles.On("Upsert", mock.Anything, mock.AnythingOfType("*model.Profile")).Return(profileErr)
				f.identity.On("DeleteUser", mock.Anything, testIdentity.ID).Return(nil)
			},
			expectedError: apperrors.ErrProfileSync,
			check: func(t *testing.T, f *authFixture, res *SignUpResult, err error) {
				assert.Equal(t, profileErr, apperrors.RootCause(err))
				assert.Zero(t, f.logs.FilterMessage("orphaned identity without profile").Len())
				f.sessions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name: "failed compensation is logged as an orphan",
			setupMocks: func(f *authFixture) {
				f.identity.On("SignUp", mock.Anything, testSignUp.Email, testSignUp.Password).Return(testIdentity, testTokens, nil)
				f.identity.On("GetUser", mock.Anything, "access").Return(testIdentity, nil)
				f.profiles.On("Upsert", mock.Anything, mock.AnythingOfType("*model.Profile")).Return(profileErr)
				f.identity.On("DeleteUser", mock.Anything, testIdentity.ID).Return(errors.New("service key not configured"))
			},
			expectedError: apperrors.ErrProfileSync,
			check: func(t *testing.T, f *authFixture, res *SignUpResult, err error) {
				orphans := f.logs.FilterMessage("orphaned identity without profile").All()
				require.Len(t, orphans, 1)
				assert.Equal(t, testIdentity.ID, orphans[0].ContextMap()["user_id"])
			},
		},
		{
			name: "session store failure still reports success",
			setupMocks: func(f *authFixture) {
				f.identity.On("SignUp", mock.Anything, testSignUp.Email, testSignUp.Password).Return(testIdentity, testTokens, nil)
				f.identity.On("GetUser", mock.Anything, "access").Return(testIdentity, nil)
				f.profiles.On("Upsert", mock.Anything, mock.AnythingOfType("*model.Profile")).Return(nil)
				f.sessions.On("Save", mock.Anything, mock.AnythingOfType("*auth.Session"), time.Hour).Return(errors.New("redis down"))
			},
			check: func(t *testing.T, f *authFixture, res *SignUpResult, err error) {
				assert.Nil(t, res.Session)
				assert.Empty(t, res.Token)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			tt.setupMocks(f)

			res, err := f.svc.SignUp(context.Background(), testSignUp)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				require.NotNil(t, res)
			}
			if tt.check != nil {
				tt.check(t, f, res, err)
			}
			f.assertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		setupMocks    func(f *authFixture)
		expectedError error
	}{
		{
			name: "successful login",
			setupMocks: func(f *authFixture) {
				f.identity.On("SignIn", mock.Anything, "ada@example.com", "secret123").Return(testIdentity, testTokens, nil)
				f.sessions.On("Save", mock.Anything, mock.AnythingOfType("*auth.Session"), time.Hour).Return(nil)
			},
		},
		{
			name: "invalid credentials",
			setupMocks: func(f *authFixture) {
				f.identity.On("SignIn", mock.Anything, "ada@example.com", "secret123").Return(nil, nil, apperrors.ErrInvalidCredentials)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name: "session store failure",
			setupMocks: func(f *authFixture) {
				f.identity.On("SignIn", mock.Anything, "ada@example.com", "secret123").Return(testIdentity, testTokens, nil)
				f.sessions.On("Save", mock.Anything, mock.AnythingOfType("*auth.Session"), time.Hour).Return(errors.New("redis down"))
			},
			expectedError: errors.New("save session: redis down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			tt.setupMocks(f)

			token, expiresAt, sess, err := f.svc.Login(context.Background(), "ada@example.com", "secret123")

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
				assert.Empty(t, token)
				assert.Nil(t, sess)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.True(t, expiresAt.After(time.Now()))
				assert.Equal(t, testIdentity.ID, sess.UserID)
				assert.Equal(t, "access", sess.AccessToken)
			}
			f.assertExpectations(t)
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture()
	sess := &auth.Session{ID: "sid", UserID: testIdentity.ID, AccessToken: "access"}
	f.identity.On("SignOut", mock.Anything, "access").Return(errors.New("token revoked"))
	f.sessions.On("Delete", mock.Anything, "sid").Return(nil)

	assert.NoError(t, f.svc.Logout(context.Background(), sess))
	assert.NoError(t, f.svc.Logout(context.Background(), nil))
	f.assertExpectations(t)
}

func TestAuthService_Resolve(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		setupMocks    func(f *authFixture)
		expectedError error
		expectedToken string
	}{
		{
			name: "valid session",
			setupMocks: func(f *authFixture) {
				f.sessions.On("Get", mock.Anything, "sid").Return(&auth.Session{
					ID: "sid", UserID: testIdentity.ID, AccessToken: "access", RefreshToken: "refresh", ExpiresAt: now.Add(time.Hour),
				}, nil)
				f.identity.On("GetUser", mock.Anything, "access").Return(testIdentity, nil)
			},
			expectedToken: "access",
		},
		{
			name: "unknown session",
			setupMocks: func(f *authFixture) {
				f.sessions.On("Get", mock.Anything, "sid").Return(nil, auth.ErrSessionNotFound)
			},
			expectedError: apperrors.ErrNotAuthenticated,
		},
		{
			name: "expired access token is refreshed",
			setupMocks: func(f *authFixture) {
				f.sessions.On("Get", mock.Anything, "sid").Return(&auth.Session{
					ID: "sid", UserID: testIdentity.ID, AccessToken: "stale", RefreshToken: "refresh", ExpiresAt: now.Add(-time.Minute),
				}, nil)
				f.identity.On("Refresh", mock.Anything, "refresh").Return(&auth.Tokens{
					AccessToken: "fresh", RefreshToken: "refresh-2", ExpiresAt: now.Add(time.Hour),
				}, nil)
				f.sessions.On("Save", mock.Anything, mock.MatchedBy(func(s *auth.Session) bool {
					return s.AccessToken == "fresh" && s.RefreshToken == "refresh-2"
				}), time.Hour).Return(nil)
				f.identity.On("GetUser", mock.Anything, "fresh").Return(testIdentity, nil)
			},
			expectedToken: "fresh",
		},
		{
			name: "failed refresh drops the session",
			setupMocks: func(f *authFixture) {
				f.sessions.On("Get", mock.Anything, "sid").Return(&auth.Session{
					ID: "sid", UserID: testIdentity.ID, AccessToken: "stale", RefreshToken: "refresh", ExpiresAt: now.Add(-time.Minute),
				}, nil)
				f.identity.On("Refresh", mock.Anything, "refresh").Return(nil, apperrors.ErrNotAuthenticated)
				f.sessions.On("Delete", mock.Anything, "sid").Return(nil)
			},
			expectedError: apperrors.ErrNotAuthenticated,
		},
		{
			name: "identity rejects the access token",
			setupMocks: func(f *authFixture) {
				f.sessions.On("Get", mock.Anything, "sid").Return(&auth.Session{
					ID: "sid", UserID: testIdentity.ID, AccessToken: "access", ExpiresAt: now.Add(time.Hour),
				}, nil)
				f.identity.On("GetUser", mock.Anything, "access").Return(nil, apperrors.ErrNotAuthenticated)
			},
			expectedError: apperrors.ErrNotAuthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			f.svc.now = func() time.Time { return now }
			tt.setupMocks(f)

			sess, err := f.svc.Resolve(context.Background(), "sid")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, sess)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedToken, sess.AccessToken)
				assert.Equal(t, testIdentity.Email, sess.Email)
			}
			f.assertExpectations(t)
		})
	}
}
