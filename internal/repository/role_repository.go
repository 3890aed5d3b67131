package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

var ErrRoleNotFound = fmt.Errorf("role %w", ErrNotFound)

// RoleRepository defines the interface for role lookups
type RoleRepository interface {
	List(ctx context.Context) ([]*domain.Role, error)
	FindByName(ctx context.Context, name string) (*domain.Role, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Role, error)
}

type roleRepository struct {
	db *sql.DB
}

// NewRoleRepository creates a new instance of RoleRepository
func NewRoleRepository(db *sql.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := []*domain.Role{}
	for rows.Next() {
		role := &domain.Role{}
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}
	return roles, nil
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.findOne(ctx, `SELECT id, name FROM roles WHERE name = $1`, name)
}

func (r *roleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Role, error) {
	return r.findOne(ctx, `SELECT id, name FROM roles WHERE id = $1`, id)
}

func (r *roleRepository) findOne(ctx context.Context, query string, arg interface{}) (*domain.Role, error) {
	role := &domain.Role{}
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&role.ID, &role.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to find role: %w", err)
	}
	return role, nil
}
