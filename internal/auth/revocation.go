package auth

import (
	"context"
	"time"
)

// RevocationList records token ids that must be rejected before their natural
// expiry. It sits on top of TokenManager verification.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// NoopRevocationList never revokes anything.
type NoopRevocationList struct{}

func (NoopRevocationList) Revoke(context.Context, string, time.Time) error { return nil }

func (NoopRevocationList) IsRevoked(context.Context, string) (bool, error) { return false, nil }
