package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

var ErrEmailTokenNotFound = fmt.Errorf("token %w", ErrNotFound)

// EmailTokenRepository stores one-time tokens mailed to users. The same
// implementation backs verification and password reset tokens.
type EmailTokenRepository interface {
	Create(ctx context.Context, token *domain.EmailToken) error
	FindByToken(ctx context.Context, token string) (*domain.EmailToken, error)
	DeleteByEmail(ctx context.Context, email string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type emailTokenRepository struct {
	db    *sql.DB
	table string
}

// NewVerificationTokenRepository returns the repository of email verification tokens
func NewVerificationTokenRepository(db *sql.DB) EmailTokenRepository {
	return &emailTokenRepository{db: db, table: "verification_tokens"}
}

// NewPasswordResetTokenRepository returns the repository of password reset tokens
func NewPasswordResetTokenRepository(db *sql.DB) EmailTokenRepository {
	return &emailTokenRepository{db: db, table: "password_reset_tokens"}
}

func (r *emailTokenRepository) Create(ctx context.Context, token *domain.EmailToken) error {
	query := `INSERT INTO ` + r.table + ` (id, email, token, expires_at) VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query, token.ID, token.Email, token.Token, token.ExpiresAt); err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

func (r *emailTokenRepository) FindByToken(ctx context.Context, token string) (*domain.EmailToken, error) {
	query := `SELECT id, email, token, expires_at FROM ` + r.table + ` WHERE token = $1`

	t := &domain.EmailToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&t.ID, &t.Email, &t.Token, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEmailTokenNotFound
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	return t, nil
}

// DeleteByEmail removes outstanding tokens of an address so only the newest one is valid
func (r *emailTokenRepository) DeleteByEmail(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE email = $1`, email); err != nil {
		return fmt.Errorf("failed to delete tokens: %w", err)
	}
	return nil
}

func (r *emailTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return expectOneRow(result, ErrEmailTokenNotFound)
}
