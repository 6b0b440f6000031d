package totp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// SecretBox encrypts TOTP secrets at rest with AES-256-GCM.
// Ciphertexts are base64(nonce || sealed).
type SecretBox struct {
	aead cipher.AEAD
}

// NewSecretBox creates a SecretBox from a raw 32-byte key.
func NewSecretBox(key []byte) (*SecretBox, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidEncryptionKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrInvalidEncryptionKey, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrInvalidEncryptionKey, err)
	}
	return &SecretBox{aead: aead}, nil
}

// NewSecretBoxFromConfig decodes cfg.EncryptionKey and creates a SecretBox.
func NewSecretBoxFromConfig(cfg Config) (*SecretBox, error) {
	if cfg.EncryptionKey == "" {
		return nil, ErrEncryptionKeyNotSet
	}
	key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, errors.Join(ErrInvalidEncryptionKey, err)
	}
	return NewSecretBox(key)
}

// Seal encrypts plain with a fresh random nonce.
func (b *SecretBox) Seal(plain string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Join(ErrFailedToEncryptSecret, err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (b *SecretBox) Open(encrypted string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}
	n := b.aead.NonceSize()
	if len(raw) < n {
		return "", ErrFailedToDecryptSecret
	}
	plain, err := b.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}
	return string(plain), nil
}

// GenerateEncryptionKey returns a new random key, base64-encoded for TOTP_ENCRYPTION_KEY.
func GenerateEncryptionKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
