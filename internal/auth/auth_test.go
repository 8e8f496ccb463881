package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// memoryUserStorage is an in-memory UserStorage for tests.
type memoryUserStorage struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func newMemoryUserStorage() *memoryUserStorage {
	return &memoryUserStorage{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (m *memoryUserStorage) CreateUser(_ context.Context, user *models.User) error {
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *memoryUserStorage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return user, nil
}

func (m *memoryUserStorage) GetUserByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return user, nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	authn := NewPasswordAuthenticator(newMemoryUserStorage())

	user, err := authn.Register(ctx, "ann@example.com", "ann", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)

	got, err := authn.Authenticate(ctx, "ann@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = authn.Authenticate(ctx, "ann@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = authn.Authenticate(ctx, "nobody@example.com", "correct horse battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_WeakPassword(t *testing.T) {
	authn := NewPasswordAuthenticator(newMemoryUserStorage())
	_, err := authn.Register(context.Background(), "ann@example.com", "ann", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	authn := NewPasswordAuthenticator(newMemoryUserStorage())

	_, err := authn.Register(ctx, "ann@example.com", "ann", "correct horse battery")
	require.NoError(t, err)

	_, err = authn.Register(ctx, "ann@example.com", "ann2", "correct horse battery")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	user := models.NewUser("ann@example.com", "ann", "hash")

	token, err := manager.Generate(user)
	require.NoError(t, err)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "ann", claims.Username)
	assert.Equal(t, user.ID, claims.Subject)
}

func TestJWTValidate_Rejections(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	user := models.NewUser("ann@example.com", "ann", "hash")

	t.Run("garbage token", func(t *testing.T) {
		_, err := manager.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := manager.Generate(user)
		require.NoError(t, err)
		other := NewJWTManager("different-secret", time.Hour)
		_, err = other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived := NewJWTManager("test-secret", -time.Minute)
		token, err := shortLived.Generate(user)
		require.NoError(t, err)
		_, err = shortLived.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		// Same secret, different issuer: another service's token must
		// not open a session here.
		foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    "other-service",
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		token, err := foreign.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = manager.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
