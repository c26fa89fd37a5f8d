package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "autods/internal/errors"
	"autods/internal/gateway/supabase"
)

// Identity is a user as known to the identity service.
type Identity struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Tokens are the identity service credentials of a signed-in user.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// IdentityProvider is the external identity service.
type IdentityProvider interface {
	// SignUp creates an identity. Tokens is nil when email confirmation is pending.
	SignUp(ctx context.Context, email, password string) (*Identity, *Tokens, error)
	SignIn(ctx context.Context, email, password string) (*Identity, *Tokens, error)
	GetUser(ctx context.Context, accessToken string) (*Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	SignOut(ctx context.Context, accessToken string) error
	DeleteUser(ctx context.Context, id string) error
}

// SupabaseIdentity implements IdentityProvider with Supabase Auth.
type SupabaseIdentity struct {
	auth *supabase.AuthClient
	now  func() time.Time
}

var _ IdentityProvider = (*SupabaseIdentity)(nil)

func NewSupabaseIdentity(auth *supabase.AuthClient) *SupabaseIdentity {
	return &SupabaseIdentity{auth: auth, now: time.Now}
}

func (p *SupabaseIdentity) SignUp(ctx context.Context, email, password string) (*Identity, *Tokens, error) {
	sess, err := p.auth.SignUp(ctx, supabase.SignUpRequest{Email: email, Password: password})
	if err != nil {
		return nil, nil, authError(apperrors.ErrAuthFailure, err)
	}
	if sess.User == nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrAuthFailure, "sign up returned no user", nil)
	}
	if sess.AccessToken == "" {
		return toIdentity(sess.User), nil, nil
	}
	return toIdentity(sess.User), p.toTokens(sess), nil
}

func (p *SupabaseIdentity) SignIn(ctx context.Context, email, password string) (*Identity, *Tokens, error) {
	sess, err := p.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, nil, authError(apperrors.ErrInvalidCredentials, err)
	}
	if sess.User == nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrAuthFailure, "sign in returned no user", nil)
	}
	return toIdentity(sess.User), p.toTokens(sess), nil
}

func (p *SupabaseIdentity) GetUser(ctx context.Context, accessToken string) (*Identity, error) {
	user, err := p.auth.GetUser(ctx, accessToken)
	if err != nil {
		return nil, authError(apperrors.ErrNotAuthenticated, err)
	}
	return toIdentity(user), nil
}

func (p *SupabaseIdentity) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	sess, err := p.auth.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, authError(apperrors.ErrNotAuthenticated, err)
	}
	return p.toTokens(sess), nil
}

func (p *SupabaseIdentity) SignOut(ctx context.Context, accessToken string) error {
	if err := p.auth.SignOut(ctx, accessToken); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func (p *SupabaseIdentity) DeleteUser(ctx context.Context, id string) error {
	if err := p.auth.AdminDeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}

func (p *SupabaseIdentity) toTokens(sess *supabase.Session) *Tokens {
	return &Tokens{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    sess.Expiry(p.now()),
	}
}

func toIdentity(u *supabase.User) *Identity {
	return &Identity{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

// authError keeps the identity service's message for display. Transport
// failures are not credential problems and keep the generic class.
func authError(kind error, err error) error {
	var sbErr *supabase.Error
	if errors.As(err, &sbErr) {
		return apperrors.Wrap(kind, sbErr.Message, nil)
	}
	return apperrors.Wrap(apperrors.ErrAuthFailure, "identity service unavailable", err)
}
