package session

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/logger"
)

// Manager handles session records and token revocation on top of a Store.
type Manager struct {
	store  Store
	config Config
	logger *slog.Logger
	now    func() time.Time
	newID  func() uuid.UUID
}

// NewManager creates a session manager. It panics if store is nil.
func NewManager(store Store, opts ...Option) *Manager {
	if store == nil {
		panic("session: store cannot be nil")
	}

	m := &Manager{
		store:  store,
		config: DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newID:  uuid.New,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.config.TTL
}

// Create opens a new session for userID and stores it until its TTL lapses.
func (m *Manager) Create(ctx context.Context, userID uuid.UUID, meta Metadata) (*Session, error) {
	if m.config.TTL <= 0 {
		return nil, ErrInvalidTTL
	}

	now := m.now()
	s := &Session{
		ID:        m.newID(),
		UserID:    userID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(m.config.TTL),
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Join(ErrInvalidSession, err)
	}
	if err := m.store.Set(ctx, s.Key(), data, m.config.TTL); err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	return s, nil
}

// Get loads a live session.
func (m *Manager) Get(ctx context.Context, userID, sessionID uuid.UUID) (*Session, error) {
	return m.load(ctx, SessionKey(userID.String(), sessionID.String()))
}

// IsActive reports whether the session exists and has not expired.
func (m *Manager) IsActive(ctx context.Context, userID, sessionID uuid.UUID) (bool, error) {
	ok, err := m.store.Exists(ctx, SessionKey(userID.String(), sessionID.String()))
	if err != nil {
		return false, errors.Join(ErrStoreFailure, err)
	}
	return ok, nil
}

// List returns the user's live sessions, newest first.
// Records that cannot be decoded are skipped.
func (m *Manager) List(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	keys, err := m.store.Keys(ctx, UserSessionsPrefix(userID.String()))
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	sessions := make([]Session, 0, len(keys))
	for _, key := range keys {
		s, err := m.load(ctx, key)
		switch {
		case errors.Is(err, ErrSessionNotFound):
			continue
		case errors.Is(err, ErrInvalidSession):
			m.logger.WarnContext(ctx, "skipping unreadable session record",
				logger.UserID(userID),
				slog.String("key", key),
				logger.Error(err),
			)
			continue
		case err != nil:
			return nil, err
		}
		sessions = append(sessions, *s)
	}

	slices.SortFunc(sessions, func(a, b Session) int {
		return cmp.Or(
			b.CreatedAt.Compare(a.CreatedAt),
			cmp.Compare(a.ID.String(), b.ID.String()),
		)
	})

	return sessions, nil
}

// Revoke deletes one session and reports whether it existed.
func (m *Manager) Revoke(ctx context.Context, userID, sessionID uuid.UUID) (bool, error) {
	ok, err := m.store.Delete(ctx, SessionKey(userID.String(), sessionID.String()))
	if err != nil {
		return false, errors.Join(ErrStoreFailure, err)
	}
	return ok, nil
}

// RevokeAll deletes every session of the user and returns how many were removed.
func (m *Manager) RevokeAll(ctx context.Context, userID uuid.UUID) (int, error) {
	keys, err := m.store.Keys(ctx, UserSessionsPrefix(userID.String()))
	if err != nil {
		return 0, errors.Join(ErrStoreFailure, err)
	}

	var removed int
	for _, key := range keys {
		ok, err := m.store.Delete(ctx, key)
		if err != nil {
			return removed, errors.Join(ErrStoreFailure, err)
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// BlacklistToken marks a token id as revoked for ttl, which should cover the
// token's remaining lifetime. A non-positive ttl is a no-op since the token
// can no longer verify.
func (m *Manager) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return ErrEmptyTokenID
	}
	if ttl <= 0 {
		return nil
	}
	if err := m.store.Set(ctx, BlacklistKey(jti), []byte("1"), ttl); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

// BlacklistUntil blacklists a token id until its expiry time.
func (m *Manager) BlacklistUntil(ctx context.Context, jti string, expiresAt time.Time) error {
	return m.BlacklistToken(ctx, jti, expiresAt.Sub(m.now()))
}

// IsBlacklisted reports whether the token id was revoked. Empty ids are never blacklisted.
func (m *Manager) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	ok, err := m.store.Exists(ctx, BlacklistKey(jti))
	if err != nil {
		return false, errors.Join(ErrStoreFailure, err)
	}
	return ok, nil
}

func (m *Manager) load(ctx context.Context, key string) (*Session, error) {
	data, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	if data == nil {
		return nil, ErrSessionNotFound
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Join(ErrInvalidSession, err)
	}
	if s.IsExpired(m.now()) {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}
