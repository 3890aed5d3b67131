package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrUserAlreadyExists = fmt.Errorf("user with this email %w", ErrAlreadyExists)
)

// UserRepository stores accounts. Store staff carry a store id; storefront
// customers do not.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	MarkEmailVerified(ctx context.Context, email string, at time.Time) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `
	u.id, u.store_id, u.role_id, r.name, u.name, u.email, u.password_hash,
	u.email_verified, u.created_at, u.updated_at
`

func scanUser(row interface{ Scan(...interface{}) error }) (*domain.User, error) {
	user := &domain.User{}
	var storeID uuid.NullUUID
	var verified sql.NullTime
	if err := row.Scan(&user.ID, &storeID, &user.RoleID, &user.RoleName, &user.Name, &user.Email,
		&user.PasswordHash, &verified, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	if storeID.Valid {
		user.StoreID = &storeID.UUID
	}
	if verified.Valid {
		user.EmailVerified = &verified.Time
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, store_id, role_id, name, email, password_hash, email_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.StoreID, user.RoleID, user.Name, user.Email, user.PasswordHash,
		user.EmailVerified, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, ErrUserAlreadyExists, "create user")
	}
	return nil
}

// findOne loads the single user matching column = arg, joined with its role
func (r *userRepository) findOne(ctx context.Context, column string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u JOIN roles r ON r.id = u.role_id WHERE u.` + column + ` = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to find user by %s: %w", column, err)
	}
	return user, nil
}

// FindByEmail expects an already normalized address
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, "id", id)
}

// ListByStore returns the members of a store, newest first
func (r *userRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u JOIN roles r ON r.id = u.role_id
		WHERE u.store_id = $1
		ORDER BY u.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Update writes the profile fields (name, email, password hash, email verification)
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, email_verified = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.EmailVerified, user.UpdatedAt)
	if err != nil {
		return mapWriteError(err, ErrUserAlreadyExists, "update user")
	}

	return expectOneRow(result, ErrUserNotFound)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return expectOneRow(result, ErrUserNotFound)
}

func (r *userRepository) MarkEmailVerified(ctx context.Context, email string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = $2, updated_at = NOW() WHERE email = $1`, email, at)
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}

	return expectOneRow(result, ErrUserNotFound)
}

// expectOneRow returns notFound when result touched no rows
func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
