package auth

import (
	"context"
	"time"
)

const revokedTokenKeyPrefix = "revoked:token:"

// KeyValue is the subset of the cache client the token store needs.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// TokenStoreInterface defines the interface for token revocation.
type TokenStoreInterface interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore keeps revocation markers for logged-out tokens. Tokens themselves
// are never stored; a marker lives only as long as the token it revokes.
type TokenStore struct {
	kv KeyValue
}

var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(kv KeyValue) *TokenStore {
	return &TokenStore{kv: kv}
}

// Revoke marks tokenID as revoked for ttl. Already expired tokens need no marker.
func (s *TokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	return s.kv.Set(ctx, revokedTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsRevoked checks for a revocation marker.
func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	data, err := s.kv.Get(ctx, revokedTokenKeyPrefix+tokenID)
	if err != nil {
		return false, nil // not revoked if error (fail safe)
	}
	return data != nil, nil
}
