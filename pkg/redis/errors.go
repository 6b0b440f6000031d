package redis

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("redis.empty_connection_url")
	ErrInvalidURL         = errors.New("redis.invalid_url")
	ErrNotReady           = errors.New("redis.not_ready")
	ErrHealthcheckFailed  = errors.New("redis.healthcheck_failed")
	ErrEmptyKey           = errors.New("redis.empty_key")
)
