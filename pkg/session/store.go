package session

import (
	"context"
	"time"
)

// Store is the key-value backend for session records, the token blacklist and
// one-time flags. Get and Take return nil, nil when the key is missing or
// expired. A zero expiration means the key never expires.
//
// *redis.Storage and *MemoryStore both satisfy it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Take(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, exp time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
}

const (
	sessionPrefix   = "session:"
	blacklistPrefix = "blacklist:"
)

// SessionKey is the store key of a single session.
func SessionKey(userID, sessionID string) string {
	return sessionPrefix + userID + ":" + sessionID
}

// UserSessionsPrefix is the key prefix shared by every session of a user.
func UserSessionsPrefix(userID string) string {
	return sessionPrefix + userID + ":"
}

// BlacklistKey is the store key marking a revoked token id.
func BlacklistKey(jti string) string {
	return blacklistPrefix + jti
}
