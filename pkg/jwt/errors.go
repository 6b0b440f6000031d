package jwt

import "errors"

var (
	ErrInvalidToken      = errors.New("jwt.invalid_token")
	ErrExpiredToken      = errors.New("jwt.expired_token")
	ErrWrongTokenType    = errors.New("jwt.wrong_token_type")
	ErrMissingSigningKey = errors.New("jwt.missing_signing_key")
	ErrMissingSubject    = errors.New("jwt.missing_subject")
)
