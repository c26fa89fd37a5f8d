package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// AuthClient handles Supabase Auth operations.
type AuthClient struct {
	client *Client
}

// SignUp creates a new user. When email confirmation is enabled the response
// carries no tokens and the returned session only has User set.
func (a *AuthClient) SignUp(ctx context.Context, req SignUpRequest) (*Session, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, statusCode, err := a.client.request(ctx, http.MethodPost, a.client.authURL+"/signup", body, nil)
	if err != nil {
		return nil, err
	}
	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	if !gjson.GetBytes(respBody, "access_token").Exists() {
		var user User
		if err := json.Unmarshal(respBody, &user); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
		return &Session{User: &user}, nil
	}

	return decodeSession(respBody)
}

// SignInWithPassword authenticates a user with email/password.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, statusCode, err := a.client.request(ctx, http.MethodPost, a.client.authURL+"/token?grant_type=password", body, nil)
	if err != nil {
		return nil, err
	}
	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}
	return decodeSession(respBody)
}

// RefreshToken exchanges a refresh token for a new session.
func (a *AuthClient) RefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, statusCode, err := a.client.request(ctx, http.MethodPost, a.client.authURL+"/token?grant_type=refresh_token", body, nil)
	if err != nil {
		return nil, err
	}
	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}
	return decodeSession(respBody)
}

// GetUser retrieves the user an access token belongs to.
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	respBody, statusCode, err := a.client.requestWithToken(ctx, http.MethodGet, a.client.authURL+"/user", nil, nil, accessToken)
	if err != nil {
		return nil, err
	}
	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	var user User
	if err := json.Unmarshal(respBody, &user); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &user, nil
}

// SignOut revokes the refresh tokens of the session an access token belongs to.
func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	respBody, statusCode, err := a.client.requestWithToken(ctx, http.MethodPost, a.client.authURL+"/logout", nil, nil, accessToken)
	if err != nil {
		return err
	}
	if statusCode >= 400 {
		return parseError(respBody, statusCode)
	}
	return nil
}

// AdminDeleteUser deletes a user. Requires the service role key.
func (a *AuthClient) AdminDeleteUser(ctx context.Context, userID string) error {
	respBody, statusCode, err := a.client.requestWithServiceKey(ctx, http.MethodDelete, a.client.authURL+"/admin/users/"+userID, nil, nil)
	if err != nil {
		return err
	}
	if statusCode >= 400 {
		return parseError(respBody, statusCode)
	}
	return nil
}

func decodeSession(body []byte) (*Session, error) {
	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &session, nil
}
