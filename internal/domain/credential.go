package domain

import (
	"errors"
	"strconv"
)

// ErrCredentialNotFound is returned by credential stores when no account matches.
var ErrCredentialNotFound = errors.New("credential not found")

// UserID is the canonical account identifier. It travels as a string in token claims.
type UserID int64

// ParseUserID converts the wire representation of a subject into a UserID.
func ParseUserID(s string) (UserID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return UserID(id), nil
}

func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// AccountState represents lifecycle states for an account.
type AccountState string

const (
	AccountStateActive   AccountState = "ACTIVE"
	AccountStateInactive AccountState = "INACTIVE"
)

// Credential is the read-only login record owned by the credential store.
type Credential struct {
	ID           UserID
	Email        string
	PasswordHash string
	State        AccountState
}

// Active reports whether the account may log in.
func (c *Credential) Active() bool {
	return c != nil && c.State == AccountStateActive
}
