package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriscan/nutriscan-api/internal/domain"
)

// Account states as stored in the usuarios.estado column.
const (
	storedStateActive   = "Activo"
	storedStateInactive = "Inactivo"
)

var errNoPool = errors.New("postgres pool not configured")

// CredentialRepository reads login records from the user store.
type CredentialRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
	List(ctx context.Context) ([]domain.Credential, error)
	UpdatePasswordHash(ctx context.Context, id domain.UserID, hash string) error
}

type credentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository returns a Postgres-backed implementation.
func NewCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &credentialRepository{pool: pool}
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	const query = `
        SELECT id_usuario, email, password_hash, estado
        FROM usuarios WHERE email=$1`

	if r.pool == nil {
		return nil, errNoPool
	}

	var (
		id    int64
		cred  domain.Credential
		state string
	)
	if err := r.pool.QueryRow(ctx, query, email).Scan(&id, &cred.Email, &cred.PasswordHash, &state); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("credential by email: %w", err)
	}
	cred.ID = domain.UserID(id)
	cred.State = AccountStateFromStored(state)
	return &cred, nil
}

func (r *credentialRepository) List(ctx context.Context) ([]domain.Credential, error) {
	const query = `
        SELECT id_usuario, email, password_hash, estado
        FROM usuarios ORDER BY id_usuario`

	if r.pool == nil {
		return nil, errNoPool
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []domain.Credential
	for rows.Next() {
		var (
			id    int64
			cred  domain.Credential
			state string
		)
		if err := rows.Scan(&id, &cred.Email, &cred.PasswordHash, &state); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		cred.ID = domain.UserID(id)
		cred.State = AccountStateFromStored(state)
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return creds, nil
}

func (r *credentialRepository) UpdatePasswordHash(ctx context.Context, id domain.UserID, hash string) error {
	const query = `
        UPDATE usuarios SET password_hash=$1
        WHERE id_usuario=$2`

	if r.pool == nil {
		return errNoPool
	}

	cmd, err := r.pool.Exec(ctx, query, hash, int64(id))
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrCredentialNotFound
	}
	return nil
}

// AccountStateFromStored maps the estado column to an AccountState.
// Anything other than the active marker is treated as inactive.
func AccountStateFromStored(state string) domain.AccountState {
	if state == storedStateActive {
		return domain.AccountStateActive
	}
	return domain.AccountStateInactive
}

// StoredAccountState is the inverse of AccountStateFromStored.
func StoredAccountState(state domain.AccountState) string {
	if state == domain.AccountStateActive {
		return storedStateActive
	}
	return storedStateInactive
}
