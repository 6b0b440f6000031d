// Package totp implements RFC 6238 time-based one-time passwords for
// multi-factor login.
//
// Secrets are 160-bit base32 strings. They are stored encrypted with
// AES-256-GCM through a SecretBox keyed from TOTP_ENCRYPTION_KEY, and only
// decrypted to check a code. Codes are six digits over 30-second periods;
// Verifier accepts one period of clock drift either way by default.
//
// Enrollment:
//
//	box, err := totp.NewSecretBoxFromConfig(cfg)
//	enr, err := totp.NewEnrollment(box, cfg, user.Email)
//	// store enr.EncryptedSecret, render enr.QRCodeDataURI()
//
// Login:
//
//	ok, err := totp.NewVerifier(box, cfg.ValidWindow, nil).VerifyEncrypted(stored, code)
package totp
