package domain

import "time"

// TokenData is the verified identity extracted from an access token.
type TokenData struct {
	UserID    UserID
	Email     string
	TokenID   string
	ExpiresAt time.Time
}
