package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/nutriscan/nutriscan-api/internal/domain"
	apperrors "github.com/nutriscan/nutriscan-api/pkg/util/errorutil"
)

const tokenDataKey = "auth_token_data"

// FailureRecorder receives the kind of every rejected request.
type FailureRecorder interface {
	RecordAuthFailure(kind string)
}

// AuthMiddleware validates bearer tokens before protected handlers run.
type AuthMiddleware struct {
	tokens      *TokenManager
	revocations RevocationList
	failures    FailureRecorder
}

// NewAuthMiddleware constructs middleware. revocations and failures may be nil.
func NewAuthMiddleware(tokens *TokenManager, revocations RevocationList, failures FailureRecorder) *AuthMiddleware {
	if revocations == nil {
		revocations = NoopRevocationList{}
	}
	return &AuthMiddleware{tokens: tokens, revocations: revocations, failures: failures}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	data, err := m.tokens.Verify(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return m.reject(err)
	}

	if data.TokenID != "" {
		revoked, err := m.revocations.IsRevoked(c.UserContext(), data.TokenID)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if revoked {
			return m.reject(ErrRevoked)
		}
	}

	c.Locals(tokenDataKey, data)
	return c.Next()
}

func (m *AuthMiddleware) reject(err error) error {
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		authErr = &AuthError{Kind: KindInvalidSignature, Err: err}
	}
	if m.failures != nil {
		m.failures.RecordAuthFailure(string(authErr.Kind))
	}
	return ToDomainError(authErr)
}

// ToDomainError renders an AuthError as a 401 response error.
func ToDomainError(err *AuthError) error {
	return apperrors.NewUnauthorizedCode(string(err.Kind), err.Kind.Message(), err)
}

// TokenDataFromContext retrieves the verified identity.
func TokenDataFromContext(c *fiber.Ctx) (*domain.TokenData, bool) {
	val := c.Locals(tokenDataKey)
	if val == nil {
		return nil, false
	}
	data, ok := val.(*domain.TokenData)
	return data, ok
}
