package ratelimiter

import "errors"

var (
	ErrInvalidConfig     = errors.New("ratelimiter.invalid_config")
	ErrInvalidTokenCount = errors.New("ratelimiter.invalid_token_count")
	ErrStoreUnavailable  = errors.New("ratelimiter.store_unavailable")
	ErrLimitExceeded     = errors.New("ratelimiter.limit_exceeded")
)
