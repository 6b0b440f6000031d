package session

import "errors"

var (
	// ErrSessionNotFound indicates no live session was found
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrInvalidSession indicates a stored record could not be decoded
	ErrInvalidSession = errors.New("session.invalid")

	// ErrInvalidTTL indicates a non-positive session lifetime
	ErrInvalidTTL = errors.New("session.invalid_ttl")

	// ErrEmptyKey indicates a write with an empty store key
	ErrEmptyKey = errors.New("session.empty_key")

	// ErrEmptyTokenID indicates a blacklist call without a token id
	ErrEmptyTokenID = errors.New("session.empty_token_id")

	// ErrStoreFailure wraps backend errors
	ErrStoreFailure = errors.New("session.store_failure")
)
