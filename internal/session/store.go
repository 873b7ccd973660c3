package session

import (
	"context"
	"sync"

	"github.com/medconnect/portal-gateway/pkg/model"
	"go.uber.org/zap"
)

// Restorer resolves an unknown token to an identity, normally via the
// backend's /auth/me endpoint.
type Restorer interface {
	Me(ctx context.Context, token string) (*model.Identity, error)
}

// Session pairs an identity with the bearer token that authenticates it.
// Both fields are set together or not at all.
type Session struct {
	Identity model.Identity
	Token    string
}

// Store is the process-wide session registry, keyed by token. It is read by
// the route guard and dashboards and written only by login/logout. Every read
// observes a consistent snapshot: a token is never present without its
// identity.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]model.Identity
	restorer Restorer
	logger   *zap.Logger
}

// NewStore creates an empty session store.
func NewStore(restorer Restorer, logger *zap.Logger) *Store {
	return &Store{
		sessions: make(map[string]model.Identity),
		restorer: restorer,
		logger:   logger,
	}
}

// Login records an authenticated session atomically.
func (s *Store) Login(identity model.Identity, token string) {
	if token == "" {
		return
	}

	s.mu.Lock()
	s.sessions[token] = identity
	s.mu.Unlock()

	s.logger.Info("session established",
		zap.String("user_id", identity.ID),
		zap.String("role", string(identity.Role)),
	)
}

// Logout clears the local session. The backend call is the auth service's
// responsibility; local state is cleared regardless of its outcome.
func (s *Store) Logout(token string) {
	s.mu.Lock()
	identity, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()

	if ok {
		s.logger.Info("session cleared", zap.String("user_id", identity.ID))
	}
}

// Current returns the identity behind a token, if one is established.
func (s *Store) Current(token string) (*model.Identity, bool) {
	s.mu.RLock()
	identity, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	snapshot := identity
	return &snapshot, true
}

// Replace swaps the token backing an existing session, used after a refresh.
// The old token stops resolving in the same critical section that admits the
// new one.
func (s *Store) Replace(oldToken, newToken string, identity model.Identity) {
	if newToken == "" {
		return
	}

	s.mu.Lock()
	delete(s.sessions, oldToken)
	s.sessions[newToken] = identity
	s.mu.Unlock()
}

// Restore resolves an unknown token through the backend and admits it on
// success. Tokens already known are returned without a network call.
func (s *Store) Restore(ctx context.Context, token string) (*model.Identity, error) {
	if identity, ok := s.Current(token); ok {
		return identity, nil
	}

	identity, err := s.restorer.Me(ctx, token)
	if err != nil {
		return nil, err
	}

	s.Login(*identity, token)
	return identity, nil
}
