package totp

import "time"

// Verifier checks codes against secrets stored encrypted.
type Verifier struct {
	box    *SecretBox
	window int
	now    func() time.Time
}

// NewVerifier creates a Verifier accepting codes within window periods of now.
// A nil now uses time.Now.
func NewVerifier(box *SecretBox, window int, now func() time.Time) *Verifier {
	if now == nil {
		now = time.Now
	}
	return &Verifier{box: box, window: max(window, 0), now: now}
}

// VerifyEncrypted decrypts encryptedSecret and verifies code against it.
func (v *Verifier) VerifyEncrypted(encryptedSecret, code string) (bool, error) {
	secret, err := v.box.Open(encryptedSecret)
	if err != nil {
		return false, err
	}
	return Verify(secret, code, v.now(), v.window)
}
