package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nutriscan/nutriscan-api/internal/domain"
)

// DefaultAccessTokenTTL applies when no positive TTL is configured.
const DefaultAccessTokenTTL = 60 * time.Minute

const bearerScheme = "bearer"

// TokenManager handles issuing and validating JWT tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	tm := &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(tm)
	}
	tm.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	return tm
}

// TTL returns the default lifetime of issued tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Claims describes JWT payload.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issue builds and signs a token for the account using the configured TTL.
func (tm *TokenManager) Issue(userID domain.UserID, email string) (string, time.Time, error) {
	return tm.IssueWithTTL(userID, email, tm.ttl)
}

// IssueWithTTL builds and signs a token that expires ttl from now.
func (tm *TokenManager) IssueWithTTL(userID domain.UserID, email string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = tm.ttl
	}
	now := tm.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// Verify extracts the token from an Authorization header value and validates it.
// Every failure is an *AuthError.
func (tm *TokenManager) Verify(authHeader string) (*domain.TokenData, error) {
	tokenStr, err := ExtractToken(authHeader)
	if err != nil {
		return nil, err
	}
	return tm.ParseToken(tokenStr)
}

// ExtractToken returns the candidate token from "Bearer <token>" or a bare "<token>".
func ExtractToken(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	switch len(parts) {
	case 0:
		return "", ErrMissingToken
	case 1:
		return parts[0], nil
	case 2:
		if strings.EqualFold(parts[0], bearerScheme) {
			return parts[1], nil
		}
	}
	return "", ErrMalformedHeader
}

// ParseToken validates a bare token string and returns its identity.
func (tm *TokenManager) ParseToken(tokenStr string) (*domain.TokenData, error) {
	claims := &Claims{}
	if _, err := tm.parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}); err != nil {
		return nil, classifyParseError(err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, ErrIncompleteClaims
	}
	userID, err := domain.ParseUserID(claims.Subject)
	if err != nil {
		return nil, wrapErr(KindMalformedSubject, err)
	}

	return &domain.TokenData{
		UserID:    userID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// jwt verifies the signature before any claim, so claim errors imply a genuine token.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return wrapErr(KindExpired, err)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return wrapErr(KindIncompleteClaims, err)
	default:
		return wrapErr(KindInvalidSignature, err)
	}
}
