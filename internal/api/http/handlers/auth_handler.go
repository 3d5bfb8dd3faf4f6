package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nutriscan/nutriscan-api/internal/api/dto"
	"github.com/nutriscan/nutriscan-api/internal/auth"
	"github.com/nutriscan/nutriscan-api/internal/service"
	apperrors "github.com/nutriscan/nutriscan-api/pkg/util/errorutil"
)

// AuthHandler exposes login and session endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	// empty fields are a failed login, not a malformed request
	req.Email = strings.TrimSpace(req.Email)

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			return auth.ToDomainError(authErr)
		}
		return apperrors.MapError(err)
	}

	return c.Status(http.StatusOK).JSON(dto.TokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		UserID:      int64(result.UserID),
		Email:       result.Email,
		ExpiresAt:   result.ExpiresAt,
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	data, ok := auth.TokenDataFromContext(c)
	if !ok {
		return auth.ToDomainError(auth.ErrMissingToken)
	}
	return c.JSON(fiber.Map{
		"data": dto.MeResponse{
			UserID:    int64(data.UserID),
			Email:     data.Email,
			ExpiresAt: data.ExpiresAt,
		},
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	data, ok := auth.TokenDataFromContext(c)
	if !ok {
		return auth.ToDomainError(auth.ErrMissingToken)
	}
	if err := h.auth.Logout(c.UserContext(), data); err != nil {
		return apperrors.MapError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}
