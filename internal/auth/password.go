package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused
// instead of being silently truncated.
const (
	defaultCost       = 12
	MinPasswordLength = 8
	maxPasswordBytes  = 72
)

// ErrInvalidCredentials is returned by Verify for a wrong password. Login
// handlers report it the same way as an unknown email.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// PasswordService hashes and checks account passwords with bcrypt.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost lets tests use bcrypt.MinCost so hashing takes
// milliseconds.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// CheckPolicy validates a new password before it is hashed.
func (p *PasswordService) CheckPolicy(plaintext string) error {
	if utf8.RuneCountInString(plaintext) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(plaintext) > maxPasswordBytes {
		return fmt.Errorf("password must be %d bytes or fewer", maxPasswordBytes)
	}
	return nil
}

// Hash returns the bcrypt hash of plaintext.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if err := p.CheckPolicy(plaintext); err != nil {
		return "", fmt.Errorf("auth: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. An empty hash never
// matches, which covers accounts that only sign in through GitHub.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if hash == "" {
		return ErrInvalidCredentials
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
