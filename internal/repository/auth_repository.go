package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
)

// AuthRepository persists one-time auth codes and API sessions.
type AuthRepository struct {
	db *sqlx.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sqlx.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

// CreateCode inserts a one-time auth code.
func (r *AuthRepository) CreateCode(ctx context.Context, code *models.AuthCode) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO auth_codes (id, code, discord_user_id, discord_username, expires_at, used, used_at, created_at)
		VALUES (:id, :code, :discord_user_id, :discord_username, :expires_at, :used, :used_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, code); err != nil {
		return fmt.Errorf("create auth code: %w", err)
	}
	return nil
}

// FindUnusedCode returns an unused code row by its value.
func (r *AuthRepository) FindUnusedCode(ctx context.Context, code string) (*models.AuthCode, error) {
	const query = `SELECT id, code, discord_user_id, discord_username, expires_at, used, used_at, created_at FROM auth_codes WHERE code = $1 AND used = FALSE LIMIT 1`
	var row models.AuthCode
	if err := r.db.GetContext(ctx, &row, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find auth code: %w", err)
	}
	return &row, nil
}

// MarkCodeUsed burns a code so it cannot be exchanged twice.
func (r *AuthRepository) MarkCodeUsed(ctx context.Context, id string, usedAt time.Time) error {
	const query = `UPDATE auth_codes SET used = TRUE, used_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, usedAt); err != nil {
		return fmt.Errorf("mark auth code used: %w", err)
	}
	return nil
}

// CreateSession persists an API session row.
func (r *AuthRepository) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO api_sessions (id, discord_user_id, discord_username, expires_at, revoked, revoked_at, last_used_at, created_at)
		VALUES (:id, :discord_user_id, :discord_username, :expires_at, :revoked, :revoked_at, :last_used_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindSession returns a session row by id.
func (r *AuthRepository) FindSession(ctx context.Context, id string) (*models.Session, error) {
	const query = `SELECT id, discord_user_id, discord_username, expires_at, revoked, revoked_at, last_used_at, created_at FROM api_sessions WHERE id = $1 LIMIT 1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// TouchSession updates the last-used timestamp, best effort.
func (r *AuthRepository) TouchSession(ctx context.Context, id string, usedAt time.Time) error {
	const query = `UPDATE api_sessions SET last_used_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, usedAt); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// RevokeSession marks a session revoked.
func (r *AuthRepository) RevokeSession(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE api_sessions SET revoked = TRUE, revoked_at = $2 WHERE id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// DeleteExpired removes codes and sessions past their expiry.
func (r *AuthRepository) DeleteExpired(ctx context.Context, now time.Time) (codes int64, sessions int64, err error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auth_codes WHERE expires_at < $1`, now)
	if err != nil {
		return 0, 0, fmt.Errorf("delete expired codes: %w", err)
	}
	codes, _ = res.RowsAffected()

	res, err = r.db.ExecContext(ctx, `DELETE FROM api_sessions WHERE expires_at < $1`, now)
	if err != nil {
		return codes, 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	sessions, _ = res.RowsAffected()

	return codes, sessions, nil
}
