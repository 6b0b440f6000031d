package totp

// Config holds TOTP settings.
type Config struct {
	// EncryptionKey is a base64-encoded 32-byte AES-256 key for stored secrets.
	EncryptionKey string `env:"TOTP_ENCRYPTION_KEY,required"`
	// Issuer is the label authenticator apps show next to the account.
	Issuer string `env:"TOTP_ISSUER" envDefault:"AuthEngine"`
	// QRCodeSize is the enrollment QR code edge in pixels.
	QRCodeSize int `env:"TOTP_QR_CODE_SIZE" envDefault:"256"`
	// ValidWindow is how many periods before and after now a code stays valid.
	ValidWindow int `env:"TOTP_VALID_WINDOW" envDefault:"1"`
}

const (
	DefaultIssuer      = "AuthEngine"
	DefaultQRCodeSize  = 256
	DefaultValidWindow = 1
)
