package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// bcryptMarker starts every bcrypt hash, whatever its minor version.
const bcryptMarker = "$2"

// IsLegacy reports whether stored is not a bcrypt hash at all and would be
// treated as a plaintext credential. A damaged bcrypt value is not legacy.
func IsLegacy(stored string) bool {
	_, err := bcrypt.Cost([]byte(stored))
	return notAHash(stored, err)
}

func notAHash(stored string, err error) bool {
	if err == nil || strings.HasPrefix(stored, bcryptMarker) {
		return false
	}
	if errors.Is(err, bcrypt.ErrHashTooShort) {
		return true
	}
	var prefixErr bcrypt.InvalidHashPrefixError
	if errors.As(err, &prefixErr) {
		return true
	}
	var versionErr bcrypt.HashVersionTooNewError
	return errors.As(err, &versionErr)
}

// PasswordVerifier checks presented passwords against stored credentials.
type PasswordVerifier struct {
	// AllowLegacy accepts stored values that are not bcrypt hashes by direct
	// comparison. Only meant for the plaintext migration window.
	AllowLegacy bool
}

// NewPasswordVerifier builds a verifier.
func NewPasswordVerifier(allowLegacy bool) *PasswordVerifier {
	return &PasswordVerifier{AllowLegacy: allowLegacy}
}

// Verify returns true iff plain matches stored. An empty stored value never matches.
func (v *PasswordVerifier) Verify(plain, stored string) bool {
	if stored == "" {
		return false
	}
	err := ComparePassword(stored, plain)
	if err == nil {
		return true
	}
	if !v.AllowLegacy || !notAHash(stored, err) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(plain), []byte(stored)) == 1
}

// VerifyPassword checks plain against stored with the legacy fallback enabled.
func VerifyPassword(plain, stored string) bool {
	return (&PasswordVerifier{AllowLegacy: true}).Verify(plain, stored)
}
