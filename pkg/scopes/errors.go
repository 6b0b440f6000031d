package scopes

import "errors"

var (
	ErrInvalidFormat     = errors.New("scopes.invalid_format")
	ErrUnknownPermission = errors.New("scopes.unknown_permission")
)
