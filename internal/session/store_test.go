package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/medconnect/portal-gateway/pkg/model"
	"go.uber.org/zap"
)

type MockRestorer struct {
	mock.Mock
}

func (m *MockRestorer) Me(ctx context.Context, token string) (*model.Identity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Identity), args.Error(1)
}

func testIdentity() model.Identity {
	return model.Identity{
		ID:       "user-1",
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Role:     model.RolePatient,
	}
}

func TestLoginAndCurrent(t *testing.T) {
	store := NewStore(&MockRestorer{}, zap.NewNop())

	_, ok := store.Current("token-1")
	assert.False(t, ok)

	store.Login(testIdentity(), "token-1")

	identity, ok := store.Current("token-1")
	assert.True(t, ok)
	assert.Equal(t, "user-1", identity.ID)
	assert.Equal(t, model.RolePatient, identity.Role)
}

func TestLoginIgnoresEmptyToken(t *testing.T) {
	store := NewStore(&MockRestorer{}, zap.NewNop())

	store.Login(testIdentity(), "")

	_, ok := store.Current("")
	assert.False(t, ok)
}

func TestLogoutClearsSession(t *testing.T) {
	store := NewStore(&MockRestorer{}, zap.NewNop())
	store.Login(testIdentity(), "token-1")

	store.Logout("token-1")

	_, ok := store.Current("token-1")
	assert.False(t, ok)
}

func TestLogoutUnknownTokenIsNoop(t *testing.T) {
	store := NewStore(&MockRestorer{}, zap.NewNop())

	store.Logout("never-seen")

	_, ok := store.Current("never-seen")
	assert.False(t, ok)
}

func TestReplaceSwapsTokenAtomically(t *testing.T) {
	store := NewStore(&MockRestorer{}, zap.NewNop())
	store.Login(testIdentity(), "old-token")

	store.Replace("old-token", "new-token", testIdentity())

	_, ok := store.Current("old-token")
	assert.False(t, ok)

	identity, ok := store.Current("new-token")
	assert.True(t, ok)
	assert.Equal(t, "user-1", identity.ID)
}

func TestRestoreKnownTokenSkipsBackend(t *testing.T) {
	restorer := &MockRestorer{}
	store := NewStore(restorer, zap.NewNop())
	store.Login(testIdentity(), "token-1")

	identity, err := store.Restore(context.Background(), "token-1")

	assert.NoError(t, err)
	assert.Equal(t, "user-1", identity.ID)
	restorer.AssertNotCalled(t, "Me", mock.Anything, mock.Anything)
}

func TestRestoreUnknownTokenAsksBackend(t *testing.T) {
	restorer := &MockRestorer{}
	identity := testIdentity()
	restorer.On("Me", mock.Anything, "stored-token").Return(&identity, nil)

	store := NewStore(restorer, zap.NewNop())

	restored, err := store.Restore(context.Background(), "stored-token")

	assert.NoError(t, err)
	assert.Equal(t, "user-1", restored.ID)

	// The restored session is now cached.
	cached, ok := store.Current("stored-token")
	assert.True(t, ok)
	assert.Equal(t, "user-1", cached.ID)
	restorer.AssertExpectations(t)
}

func TestRestoreFailureLeavesStoreEmpty(t *testing.T) {
	restorer := &MockRestorer{}
	restorer.On("Me", mock.Anything, "bad-token").Return(nil, errors.New("token expired"))

	store := NewStore(restorer, zap.NewNop())

	_, err := store.Restore(context.Background(), "bad-token")

	assert.Error(t, err)
	_, ok := store.Current("bad-token")
	assert.False(t, ok)
}

func TestCurrentReturnsSnapshot(t *testing.T) {
	store := NewStore(&MockRestorer{}, zap.NewNop())
	store.Login(testIdentity(), "token-1")

	first, _ := store.Current("token-1")
	first.FullName = "mutated"

	second, _ := store.Current("token-1")
	assert.Equal(t, "Jane Doe", second.FullName)
}
