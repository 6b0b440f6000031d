package totp

import "errors"

var (
	ErrEncryptionKeyNotSet    = errors.New("totp.encryption_key_not_set")
	ErrInvalidEncryptionKey   = errors.New("totp.invalid_encryption_key")
	ErrFailedToEncryptSecret  = errors.New("totp.encrypt_failed")
	ErrFailedToDecryptSecret  = errors.New("totp.decrypt_failed")
	ErrFailedToGenerateSecret = errors.New("totp.generate_secret_failed")
	ErrFailedToGenerateQRCode = errors.New("totp.generate_qr_failed")
	ErrMissingSecret          = errors.New("totp.missing_secret")
	ErrInvalidSecret          = errors.New("totp.invalid_secret")
	ErrMissingAccountName     = errors.New("totp.missing_account_name")
	ErrMissingIssuer          = errors.New("totp.missing_issuer")
	ErrInvalidCode            = errors.New("totp.invalid_code_format")
)
