package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authengine/pkg/rbac"
)

// Password length bounds in bytes. bcrypt rejects inputs longer than 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// Registration is a self-service sign-up request.
type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// NewAccount validates r and returns an unsaved PENDING_VERIFICATION user
// holding a bcrypt hash of the password. A cost of 0 means bcrypt.DefaultCost.
func NewAccount(r Registration, cost int) (*rbac.User, error) {
	email, err := normalizeEmail(r.Email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(r.Password); err != nil {
		return nil, err
	}

	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return &rbac.User{
		Email:        email,
		FirstName:    strings.TrimSpace(r.FirstName),
		LastName:     strings.TrimSpace(r.LastName),
		PasswordHash: string(hash),
		Status:       rbac.UserStatusPendingVerification,
	}, nil
}

// normalizeEmail accepts a bare RFC 5322 address whose domain has a dot and
// returns it lowercased.
func normalizeEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrMissingCredentials
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", ErrInvalidEmail
	}
	_, domain, ok := strings.Cut(addr.Address, "@")
	if !ok || !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func checkPassword(p string) error {
	switch {
	case p == "":
		return ErrMissingCredentials
	case strings.TrimSpace(p) == "":
		return errors.Join(ErrWeakPassword, errors.New("password is blank"))
	case len(p) < MinPasswordLength:
		return errors.Join(ErrWeakPassword, fmt.Errorf("password must be at least %d bytes", MinPasswordLength))
	case len(p) > MaxPasswordLength:
		return errors.Join(ErrWeakPassword, fmt.Errorf("password must be at most %d bytes", MaxPasswordLength))
	}
	return nil
}
