// Package session keeps server-side login sessions and the token blacklist.
//
// Everything lives in a key-value Store with per-key TTLs:
//
//	session:<user_id>:<session_id>   JSON Session record, TTL = session lifetime
//	blacklist:<jti>                  revocation marker, TTL = token remaining lifetime
//
// A Redis-backed store is provided by pkg/redis (redis.Storage). MemoryStore
// is an in-process implementation for tests and single-node setups.
//
// # Usage
//
//	store := redis.NewStorage(client)
//	sessions := session.NewManager(store, session.WithTTL(jwtCfg.RefreshTTL))
//
//	s, err := sessions.Create(ctx, user.ID, session.Metadata{
//	    IPAddress: r.RemoteAddr,
//	    UserAgent: r.UserAgent(),
//	})
//	access, err := tokens.IssueAccessToken(user, s.ID.String())
//
// Logging out revokes the session and blacklists the presented token:
//
//	_, _ = sessions.Revoke(ctx, userID, sessionID)
//	_ = sessions.BlacklistUntil(ctx, claims.ID, claims.ExpiresAt.Time)
//
// Introspection rejects a token whose jti is blacklisted or whose session no
// longer exists.
package session
