package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/medconnect/portal-gateway/internal/backend"
	"github.com/medconnect/portal-gateway/internal/session"
	"github.com/medconnect/portal-gateway/internal/validation"
	"github.com/medconnect/portal-gateway/pkg/model"
)

// AuthBackend is the slice of the backend client the auth service needs.
type AuthBackend interface {
	Login(ctx context.Context, req backend.LoginRequest) (*backend.AuthResponse, error)
	Register(ctx context.Context, req backend.RegisterRequest) (*backend.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	Refresh(ctx context.Context, token string) (*backend.AuthResponse, error)
}

// ErrInvalidCredentials is returned when the backend rejects the email or
// password. The message is intentionally generic.
var ErrInvalidCredentials = errors.New("Invalid email or password. Please check your credentials.")

// FieldErrors is a validation failure. The request never reached the network.
type FieldErrors struct {
	Fields map[string]string
}

func (e *FieldErrors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	return "validation failed: " + strings.Join(keys, ", ")
}

// RoleMismatchError means the credentials were valid but the account's actual
// role differs from the role selected on the form. No session is established.
type RoleMismatchError struct {
	Selected model.Role
	Actual   model.Role
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf(
		"Access denied. This email is registered as a %s. Please select %q to login, or use the correct email for %s access.",
		strings.ToLower(e.Actual.Label()), e.Actual.Label(), strings.ToLower(e.Selected.Label()),
	)
}

// AuthService runs the login and registration flows: local validation first,
// then the backend call, then the role check, and only after all three pass
// does the session store change.
type AuthService struct {
	backend AuthBackend
	store   *session.Store
	logger  *zap.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(b AuthBackend, store *session.Store, logger *zap.Logger) *AuthService {
	return &AuthService{
		backend: b,
		store:   store,
		logger:  logger,
	}
}

// Login authenticates the user and establishes a session. The selected role
// must match the account's actual role; on mismatch the session store is left
// untouched and the caller gets a RoleMismatchError naming the actual role.
func (s *AuthService) Login(ctx context.Context, fields validation.Fields, role model.Role) (*session.Session, error) {
	if errs := validation.Validate(fields, role, true); len(errs) > 0 {
		return nil, &FieldErrors{Fields: errs}
	}

	resp, err := s.backend.Login(ctx, backend.LoginRequest{
		Email:    fields.Email,
		Password: fields.Password,
		UserType: role,
	})
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.IsAuthFailure() {
			s.logger.Info("login rejected", zap.String("email", fields.Email))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}

	if resp.User.Role != role {
		s.logger.Warn("login role mismatch",
			zap.String("email", fields.Email),
			zap.String("selected_role", string(role)),
			zap.String("actual_role", string(resp.User.Role)),
		)
		return nil, &RoleMismatchError{Selected: role, Actual: resp.User.Role}
	}

	s.store.Login(resp.User, resp.AccessToken)

	return &session.Session{Identity: resp.User, Token: resp.AccessToken}, nil
}

// Register creates an account and logs the new user straight in.
func (s *AuthService) Register(ctx context.Context, fields validation.Fields, role model.Role) (*session.Session, error) {
	if errs := validation.Validate(fields, role, false); len(errs) > 0 {
		return nil, &FieldErrors{Fields: errs}
	}

	req := backend.RegisterRequest{
		Email:    fields.Email,
		Password: fields.Password,
		FullName: strings.TrimSpace(fields.FullName),
		Phone:    fields.Phone,
		UserType: role,
	}
	if role == model.RoleDoctor {
		req.Specialization = strings.TrimSpace(fields.Specialization)
		req.LicenseNumber = strings.TrimSpace(fields.LicenseNumber)
	}

	resp, err := s.backend.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	s.store.Login(resp.User, resp.AccessToken)

	s.logger.Info("user registered",
		zap.String("user_id", resp.User.ID),
		zap.String("role", string(resp.User.Role)),
	)

	return &session.Session{Identity: resp.User, Token: resp.AccessToken}, nil
}

// Logout clears the session. The backend call is best effort; local state is
// cleared even when the network call fails.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if err := s.backend.Logout(ctx, token); err != nil {
		s.logger.Warn("backend logout failed, clearing local session anyway", zap.Error(err))
	}
	s.store.Logout(token)
}

// Refresh exchanges the current token for a fresh one and rebinds the session.
func (s *AuthService) Refresh(ctx context.Context, token string) (*session.Session, error) {
	resp, err := s.backend.Refresh(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	s.store.Replace(token, resp.AccessToken, resp.User)

	return &session.Session{Identity: resp.User, Token: resp.AccessToken}, nil
}
