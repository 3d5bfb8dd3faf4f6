package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nutriscan/nutriscan-api/internal/auth"
	"github.com/nutriscan/nutriscan-api/internal/config"
	"github.com/nutriscan/nutriscan-api/internal/domain"
	"github.com/nutriscan/nutriscan-api/internal/events"
	"github.com/nutriscan/nutriscan-api/internal/repository"
)

// Reasons attached to login_failed events.
const (
	reasonUnknownEmail     = "unknown_email"
	reasonPasswordMismatch = "password_mismatch"
	reasonInactiveAccount  = "inactive_account"
)

// LoginResult is returned on successful authentication.
type LoginResult struct {
	UserID    domain.UserID
	Email     string
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates login, logout and credential migration.
type AuthService struct {
	credentials  repository.CredentialRepository
	verifier     *auth.PasswordVerifier
	tokenMgr     *auth.TokenManager
	revocations  auth.RevocationList
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	bcryptCost   int
	rehashLegacy bool

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	CredentialRepo repository.CredentialRepository
	TokenManager   *auth.TokenManager
	Revocations    auth.RevocationList
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewAuthService builds the service. A nil TokenManager is built from cfg.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	}
	revocations := deps.Revocations
	if revocations == nil {
		revocations = auth.NoopRevocationList{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		credentials:  deps.CredentialRepo,
		verifier:     auth.NewPasswordVerifier(cfg.Auth.AllowLegacyPasswords),
		tokenMgr:     tokens,
		revocations:  revocations,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		bcryptCost:   cfg.Auth.BcryptCost,
		rehashLegacy: cfg.Auth.RehashLegacyPasswords,
	}
}

// Login authenticates by email and password. Unknown email, wrong password and
// inactive account all yield auth.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	cred, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			// keep response time close to the known-email path
			_ = auth.ComparePassword(s.placeholderHash(), password)
			s.publish(ctx, events.NewEvent(events.EventLoginFailed, email, nil,
				events.LoginFailedPayload{Reason: reasonUnknownEmail}))
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.verifier.Verify(password, cred.PasswordHash) {
		s.publish(ctx, events.NewEvent(events.EventLoginFailed, email, &cred.ID,
			events.LoginFailedPayload{Reason: reasonPasswordMismatch}))
		return nil, auth.ErrInvalidCredentials
	}
	if !cred.Active() {
		s.publish(ctx, events.NewEvent(events.EventLoginFailed, email, &cred.ID,
			events.LoginFailedPayload{Reason: reasonInactiveAccount}))
		return nil, auth.ErrInvalidCredentials
	}

	if auth.IsLegacy(cred.PasswordHash) {
		rehashed := s.rehashLegacy && s.upgradeHash(ctx, cred, password)
		s.publish(ctx, events.NewEvent(events.EventLegacyCredential, email, &cred.ID,
			events.LegacyCredentialPayload{Rehashed: rehashed}))
	}

	token, exp, err := s.tokenMgr.Issue(cred.ID, cred.Email)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventLoginSucceeded, cred.Email, &cred.ID, nil))
	return &LoginResult{UserID: cred.ID, Email: cred.Email, Token: token, ExpiresAt: exp}, nil
}

// Logout revokes the presented token. Without a revocation list it is a no-op
// and the token stays valid until it expires.
func (s *AuthService) Logout(ctx context.Context, data *domain.TokenData) error {
	if data == nil {
		return auth.ErrMissingToken
	}
	if err := s.revocations.Revoke(ctx, data.TokenID, data.ExpiresAt); err != nil {
		return err
	}
	s.publish(ctx, events.NewEvent(events.EventLoggedOut, data.Email, &data.UserID,
		events.LoggedOutPayload{TokenID: data.TokenID, ExpiresAt: data.ExpiresAt}))
	return nil
}

// MigrationReport summarizes a bulk legacy password migration.
type MigrationReport struct {
	Scanned  int
	Legacy   int
	Migrated int
	Failed   []domain.UserID
}

// MigrateLegacyPasswords replaces every plaintext credential with a bcrypt hash.
// With dryRun set it only counts them.
func (s *AuthService) MigrateLegacyPasswords(ctx context.Context, dryRun bool) (*MigrationReport, error) {
	creds, err := s.credentials.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &MigrationReport{Scanned: len(creds)}
	for i := range creds {
		cred := &creds[i]
		if cred.PasswordHash == "" || !auth.IsLegacy(cred.PasswordHash) {
			continue
		}
		report.Legacy++
		if dryRun {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !s.upgradeHash(ctx, cred, cred.PasswordHash) {
			report.Failed = append(report.Failed, cred.ID)
			continue
		}
		report.Migrated++
	}
	return report, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) upgradeHash(ctx context.Context, cred *domain.Credential, password string) bool {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		s.logger.Warn("hash legacy credential", zap.Int64("user_id", int64(cred.ID)), zap.Error(err))
		return false
	}
	if err := s.credentials.UpdatePasswordHash(ctx, cred.ID, hash); err != nil {
		s.logger.Warn("store upgraded hash", zap.Int64("user_id", int64(cred.ID)), zap.Error(err))
		return false
	}
	return true
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword("placeholder-password", s.bcryptCost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish auth event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
