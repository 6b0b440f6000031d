package totp

import (
	"encoding/base64"
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

// Enrollment is what a user needs to add the account to an authenticator app.
// Persist EncryptedSecret. Secret is shown once for manual entry.
type Enrollment struct {
	Secret          string
	EncryptedSecret string
	URI             string
	QRCode          []byte
}

// NewEnrollment generates a fresh secret for accountName and renders its
// provisioning URI as a PNG QR code.
func NewEnrollment(box *SecretBox, cfg Config, accountName string) (*Enrollment, error) {
	secret, err := GenerateSecret()
	if err != nil {
		return nil, err
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	uri, err := URI(Params{Secret: secret, AccountName: accountName, Issuer: issuer})
	if err != nil {
		return nil, err
	}

	encrypted, err := box.Seal(secret)
	if err != nil {
		return nil, err
	}

	size := cfg.QRCodeSize
	if size <= 0 {
		size = DefaultQRCodeSize
	}
	png, err := qrcode.Encode(uri, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateQRCode, err)
	}

	return &Enrollment{
		Secret:          secret,
		EncryptedSecret: encrypted,
		URI:             uri,
		QRCode:          png,
	}, nil
}

// QRCodeDataURI returns the QR code as a data URI for an <img> src.
func (e *Enrollment) QRCodeDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(e.QRCode)
}
