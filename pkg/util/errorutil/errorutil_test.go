package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestToDomainError(t *testing.T) {
	unauthorized := NewUnauthorizedCode("TOKEN_EXPIRED", "token expired", errors.New("exp"))

	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{name: "domain error", err: unauthorized, code: "TOKEN_EXPIRED", status: http.StatusUnauthorized},
		{name: "wrapped domain error", err: fmt.Errorf("login: %w", unauthorized), code: "TOKEN_EXPIRED", status: http.StatusUnauthorized},
		{name: "no rows", err: pgx.ErrNoRows, code: "NOT_FOUND", status: http.StatusNotFound},
		{name: "unknown", err: errors.New("boom"), code: "INTERNAL_ERROR", status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			if got.Code != tt.code || got.HTTPStatus != tt.status {
				t.Errorf("ToDomainError() = %s/%d, want %s/%d", got.Code, got.HTTPStatus, tt.code, tt.status)
			}
		})
	}
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{status: http.StatusNotFound, code: "NOT_FOUND"},
		{status: http.StatusMethodNotAllowed, code: "METHOD_NOT_ALLOWED"},
		{status: http.StatusTeapot, code: "HTTP_ERROR"},
		{status: http.StatusServiceUnavailable, code: "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		got := FromStatus(tt.status, "")
		if got.Code != tt.code || got.HTTPStatus != tt.status {
			t.Errorf("FromStatus(%d) = %s/%d", tt.status, got.Code, got.HTTPStatus)
		}
		if got.Message != http.StatusText(tt.status) {
			t.Errorf("FromStatus(%d) message = %q", tt.status, got.Message)
		}
	}
}
