package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"autods/internal/auth"
	apperrors "autods/internal/errors"
	"autods/internal/metrics"
	"autods/internal/model"
	"autods/internal/repository"
)

// ErrUserInfoUnavailable is returned when an identity was created but could not be read back.
var ErrUserInfoUnavailable = fmt.Errorf("%w: signup succeeded but user info could not be retrieved", apperrors.ErrAuthFailure)

// SignUpInput is a sign-up form submission.
type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// SignUpResult is the outcome of a successful sign-up. Session is nil when the
// identity service requires email confirmation before the first sign-in.
type SignUpResult struct {
	Identity          *auth.Identity
	Session           *auth.Session
	Token             string
	ExpiresAt         time.Time
	NeedsConfirmation bool
}

// AuthService handles sign-up, sign-in and session resolution.
type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error)
	Login(ctx context.Context, email, password string) (token string, expiresAt time.Time, sess *auth.Session, err error)
	Logout(ctx context.Context, sess *auth.Session) error
	Resolve(ctx context.Context, sessionID string) (*auth.Session, error)
}

type authService struct {
	identity   auth.IdentityProvider
	profiles   repository.ProfileRepository
	sessions   auth.SessionStoreInterface
	jwtService *auth.JWTService
	log        *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(identity auth.IdentityProvider, profiles repository.ProfileRepository, sessions auth.SessionStoreInterface, jwtService *auth.JWTService, log *zap.Logger) AuthService {
	return &authService{
		identity:   identity,
		profiles:   profiles,
		sessions:   sessions,
		jwtService: jwtService,
		log:        log,
		now:        time.Now,
	}
}

// SignUp creates the identity, writes its profile row and opens a session.
// A failed profile write deletes the identity again so no orphan is left behind.
func (s *authService) SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	created, tokens, err := s.identity.SignUp(ctx, in.Email, in.Password)
	metrics.ObserveGateway("auth.signup", err)
	if err != nil {
		return nil, err
	}

	current := created
	if tokens != nil {
		current, err = s.identity.GetUser(ctx, tokens.AccessToken)
		metrics.ObserveGateway("auth.get_user", err)
		if err != nil {
			s.log.Warn("fetch user after sign up", zap.String("user_id", created.ID), zap.Error(err))
			return nil, ErrUserInfoUnavailable
		}
	}
	if current == nil || current.ID == "" {
		return nil, ErrUserInfoUnavailable
	}

	profile := &model.Profile{
		ID:        current.ID,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: s.now().UTC(),
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		s.compensate(ctx, current.ID, err)
		return nil, apperrors.Wrap(apperrors.ErrProfileSync, "", err)
	}

	result := &SignUpResult{Identity: current}
	if tokens == nil {
		result.NeedsConfirmation = true
		return result, nil
	}

	sess, token, expiresAt, err := s.openSession(ctx, current, tokens)
	if err != nil {
		// the account exists, the user can still sign in
		s.log.Error("open session after sign up", zap.String("user_id", current.ID), zap.Error(err))
		return result, nil
	}
	result.Session, result.Token, result.ExpiresAt = sess, token, expiresAt
	return result, nil
}

func (s *authService) compensate(ctx context.Context, userID string, cause error) {
	s.log.Warn("profile upsert failed, deleting identity", zap.String("user_id", userID), zap.Error(cause))
	err := s.identity.DeleteUser(ctx, userID)
	metrics.ObserveGateway("auth.delete_user", err)
	if err != nil {
		s.log.Error("orphaned identity without profile",
			zap.String("user_id", userID),
			zap.NamedError("upsert_error", cause),
			zap.Error(err),
		)
	}
}

// Login signs in with email and password and returns a signed session token.
func (s *authService) Login(ctx context.Context, email, password string) (string, time.Time, *auth.Session, error) {
	ident, tokens, err := s.identity.SignIn(ctx, email, password)
	metrics.ObserveGateway("auth.signin", err)
	if err != nil {
		return "", time.Time{}, nil, err
	}

	sess, token, expiresAt, err := s.openSession(ctx, ident, tokens)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	return token, expiresAt, sess, nil
}

// Logout revokes the identity tokens and drops the session.
func (s *authService) Logout(ctx context.Context, sess *auth.Session) error {
	if sess == nil {
		return nil
	}
	if sess.AccessToken != "" {
		err := s.identity.SignOut(ctx, sess.AccessToken)
		metrics.ObserveGateway("auth.signout", err)
		if err != nil {
			s.log.Warn("identity sign out", zap.String("user_id", sess.UserID), zap.Error(err))
		}
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Resolve loads a session and confirms the identity behind it, refreshing an
// expired access token first.
func (s *authService) Resolve(ctx context.Context, sessionID string) (*auth.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return nil, apperrors.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	if sess.AccessExpired(s.now()) {
		tokens, err := s.identity.Refresh(ctx, sess.RefreshToken)
		metrics.ObserveGateway("auth.refresh", err)
		if err != nil {
			_ = s.sessions.Delete(ctx, sess.ID)
			return nil, apperrors.ErrNotAuthenticated
		}
		sess.AccessToken, sess.RefreshToken, sess.ExpiresAt = tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresAt
		if err := s.sessions.Save(ctx, sess, s.jwtService.TTL()); err != nil {
			s.log.Warn("save refreshed session", zap.String("user_id", sess.UserID), zap.Error(err))
		}
	}

	ident, err := s.identity.GetUser(ctx, sess.AccessToken)
	metrics.ObserveGateway("auth.get_user", err)
	if err != nil {
		return nil, err
	}
	sess.UserID, sess.Email = ident.ID, ident.Email
	return sess, nil
}

func (s *authService) openSession(ctx context.Context, ident *auth.Identity, tokens *auth.Tokens) (*auth.Session, string, time.Time, error) {
	sess := &auth.Session{
		ID:           auth.NewSessionID(),
		UserID:       ident.ID,
		Email:        ident.Email,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}
	if err := s.sessions.Save(ctx, sess, s.jwtService.TTL()); err != nil {
		return nil, "", time.Time{}, fmt.Errorf("save session: %w", err)
	}

	token, expiresAt, err := s.jwtService.GenerateSessionToken(sess)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("generate session token: %w", err)
	}
	return sess, token, expiresAt, nil
}
