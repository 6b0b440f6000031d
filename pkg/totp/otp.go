package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RFC 6238 defaults, which is what authenticator apps assume.
const (
	Digits    = 6
	Period    = 30
	Algorithm = "SHA1"
)

var (
	secretPattern = regexp.MustCompile(`^[A-Z2-7]+=*$`)
	codePattern   = regexp.MustCompile(`^\d{6}$`)
	encoding      = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// Params describes a provisioning URI.
type Params struct {
	Secret      string
	AccountName string
	Issuer      string
}

func (p Params) validate() error {
	switch {
	case p.Secret == "":
		return ErrMissingSecret
	case !secretPattern.MatchString(p.Secret):
		return ErrInvalidSecret
	case p.AccountName == "":
		return ErrMissingAccountName
	case p.Issuer == "":
		return ErrMissingIssuer
	}
	return nil
}

// GenerateSecret returns a random 160-bit base32 secret without padding.
func GenerateSecret() (string, error) {
	secret := make([]byte, 20)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecret, err)
	}
	return encoding.EncodeToString(secret), nil
}

// URI builds an otpauth:// provisioning URI in the Key Uri Format.
func URI(p Params) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}

	label := url.PathEscape(p.Issuer) + ":" + url.PathEscape(p.AccountName)

	q := url.Values{}
	q.Set("secret", p.Secret)
	q.Set("issuer", p.Issuer)
	q.Set("algorithm", Algorithm)
	q.Set("digits", strconv.Itoa(Digits))
	q.Set("period", strconv.Itoa(Period))

	return "otpauth://totp/" + label + "?" + q.Encode(), nil
}

// Code returns the code for the period containing t.
func Code(secret string, t time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return hotp(key, t.Unix()/Period), nil
}

// Verify checks code against the periods within window of t.
func Verify(secret, code string, t time.Time, window int) (bool, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return false, err
	}

	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return false, ErrInvalidCode
	}

	counter := t.Unix() / Period
	for i := -window; i <= window; i++ {
		if subtle.ConstantTimeCompare([]byte(hotp(key, counter+int64(i))), []byte(code)) == 1 {
			return true, nil
		}
	}
	return false, nil
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.ToUpper(strings.TrimSpace(secret))
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if !secretPattern.MatchString(secret) {
		return nil, ErrInvalidSecret
	}
	key, err := encoding.DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

// hotp is RFC 4226 with dynamic truncation to Digits.
func hotp(key []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", Digits, value%1_000_000)
}
