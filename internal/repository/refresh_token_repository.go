package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrRefreshTokenNotFound = fmt.Errorf("refresh token %w", ErrNotFound)
	ErrRefreshTokenRevoked  = errors.New("refresh token has been revoked")
)

// RefreshTokenRepository persists the refresh tokens behind login sessions.
// Only a SHA-256 digest of each token is stored; lookups hash the caller's value.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type refreshTokenRepository struct {
	db *sql.DB
}

func NewRefreshTokenRepository(db *sql.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_digest, expires_at, created_at, revoked)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		token.ID, token.UserID, tokenDigest(token.Token), token.ExpiresAt, token.CreatedAt, token.Revoked,
	)
	if err != nil {
		return mapWriteError(err, fmt.Errorf("refresh token %w", ErrAlreadyExists), "create refresh token")
	}
	return nil
}

// FindByToken returns the live record for token. A revoked record yields
// ErrRefreshTokenRevoked; expiry is left to the caller.
func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	found := &domain.RefreshToken{Token: token}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, created_at, revoked FROM refresh_tokens WHERE token_digest = $1`,
		tokenDigest(token),
	).Scan(&found.ID, &found.UserID, &found.ExpiresAt, &found.CreatedAt, &found.Revoked)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrRefreshTokenNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	case found.Revoked:
		return nil, ErrRefreshTokenRevoked
	}
	return found, nil
}

// Revoke is idempotent for an existing token; an unknown token is ErrRefreshTokenNotFound
func (r *refreshTokenRepository) Revoke(ctx context.Context, token string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE token_digest = $1`, tokenDigest(token))
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return expectOneRow(result, ErrRefreshTokenNotFound)
}

// RevokeAllForUser revokes every live token of a user, used after a password
// change, and returns the ids of the tokens it revoked
func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND NOT revoked RETURNING id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan revoked token: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
