package backend

import (
	"context"
	"net/http"

	"github.com/medconnect/portal-gateway/pkg/model"
)

// LoginRequest is the credential payload for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	UserType model.Role `json:"user_type"`
}

// RegisterRequest is the payload for POST /api/v1/auth/register.
// Specialization and LicenseNumber are sent for doctors only.
type RegisterRequest struct {
	Email          string     `json:"email"`
	Password       string     `json:"password"`
	FullName       string     `json:"full_name"`
	Phone          string     `json:"phone"`
	UserType       model.Role `json:"user_type"`
	Specialization string     `json:"specialization,omitempty"`
	LicenseNumber  string     `json:"license_number,omitempty"`
}

// AuthResponse carries the identity and token returned by login, register
// and refresh.
type AuthResponse struct {
	User        model.Identity `json:"user"`
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
}

// Login authenticates against the backend. The backend reports the account's
// actual role in the returned identity; role matching is the caller's job.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account and returns an authenticated session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the identity behind a token.
func (c *Client) Me(ctx context.Context, token string) (*model.Identity, error) {
	var identity model.Identity
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", token, nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// Logout invalidates the token server-side. Callers clear local session state
// regardless of the outcome.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", token, nil, nil)
}

// Refresh exchanges the current token for a fresh one.
func (c *Client) Refresh(ctx context.Context, token string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/refresh", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
