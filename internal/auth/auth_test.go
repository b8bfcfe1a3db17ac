package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"usermanager/internal/model"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("123")
	require.NoError(t, err)
	second, err := h.Hash("123")
	require.NoError(t, err)

	assert.NotEqual(t, "123", first)
	assert.NotEqual(t, first, second, "each hash must use a fresh salt")
	assert.NoError(t, h.Compare(first, "123"))
	assert.NoError(t, h.Compare(second, "123"))
	assert.ErrorIs(t, h.Compare(first, "1234"), bcrypt.ErrMismatchedHashAndPassword)

	_, err = h.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestBcryptHasher_RejectsLongPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = h.Hash(strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestNewBcryptHasher_FallsBackOnBadCost(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(0).cost)
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(99).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	user := &model.User{ID: 42, Email: "joao@email.com", Role: model.RoleUser}

	token, issued, err := svc.Generate(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, issued.ID)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "joao@email.com", claims.Email)
	assert.Equal(t, model.RoleUser, claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
	assert.InDelta(t, time.Hour.Seconds(), claims.Remaining().Seconds(), 5)
}

func TestJWTService_PayloadUsesIDAndEmail(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	token, _, err := svc.Generate(&model.User{ID: 7, Email: "joao@email.com"})
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, float64(7), claims["id"])
	assert.Equal(t, "joao@email.com", claims["email"])
}

func TestJWTService_Rejects(t *testing.T) {
	user := &model.User{ID: 1, Email: "a@email.com"}
	good := NewJWTService("test-secret", time.Hour)

	expired, _, err := NewJWTService("test-secret", -time.Minute).Generate(user)
	require.NoError(t, err)

	foreign, _, err := NewJWTService("other-secret", time.Hour).Generate(user)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": 1, "email": "a@email.com"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	valid, _, err := good.Generate(user)
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	for name, token := range map[string]string{
		"expired":   expired,
		"foreign":   foreign,
		"alg none":  none,
		"malformed": "not-a-token",
		"tampered":  tampered,
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			claims, err := good.Validate(token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func TestTokenStore_RevokeAndCheck(t *testing.T) {
	kv := newMemKV()
	store := NewTokenStore(kv)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", 10*time.Minute))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 10*time.Minute, kv.ttls[revokedTokenKeyPrefix+"jti-1"])
}

func TestTokenStore_SkipsExpiredAndEmpty(t *testing.T) {
	kv := newMemKV()
	store := NewTokenStore(kv)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti-2", -time.Second))
	require.NoError(t, store.Revoke(ctx, "", time.Minute))
	assert.Empty(t, kv.data)

	revoked, err := store.IsRevoked(ctx, "")
	require.NoError(t, err)
	assert.False(t, revoked)
}
