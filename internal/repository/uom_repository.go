package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrUoMNotFound = fmt.Errorf("unit of measure %w", ErrNotFound)
	ErrUoMInUse    = fmt.Errorf("unit of measure is %w by products", ErrInUse)
)

type uomRepository struct {
	db *sql.DB
}

// NewUoMRepository creates the repository of units of measure
func NewUoMRepository(db *sql.DB) CatalogRepository[*domain.UoM] {
	return &uomRepository{db: db}
}

func (r *uomRepository) Create(ctx context.Context, u *domain.UoM) error {
	query := `INSERT INTO uoms (id, store_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query, u.ID, u.StoreID, u.Name, u.CreatedAt, u.UpdatedAt); err != nil {
		return mapWriteError(err, ErrAlreadyExists, "create unit of measure")
	}
	return nil
}

func (r *uomRepository) Update(ctx context.Context, u *domain.UoM) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE uoms SET name = $3, updated_at = $4 WHERE id = $1 AND store_id = $2`,
		u.ID, u.StoreID, u.Name, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update unit of measure: %w", err)
	}
	return expectOneRow(result, ErrUoMNotFound)
}

func (r *uomRepository) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM uoms WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return mapDeleteError(err, ErrUoMInUse, "delete unit of measure")
	}
	return expectOneRow(result, ErrUoMNotFound)
}

func (r *uomRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*domain.UoM, error) {
	u := &domain.UoM{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, store_id, name, created_at, updated_at FROM uoms WHERE id = $1 AND store_id = $2`,
		id, storeID).Scan(&u.ID, &u.StoreID, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUoMNotFound
		}
		return nil, fmt.Errorf("failed to find unit of measure: %w", err)
	}
	return u, nil
}

func (r *uomRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]*domain.UoM, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, store_id, name, created_at, updated_at FROM uoms WHERE store_id = $1 ORDER BY created_at DESC`,
		storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list units of measure: %w", err)
	}
	defer rows.Close()

	uoms := []*domain.UoM{}
	for rows.Next() {
		u := &domain.UoM{}
		if err := rows.Scan(&u.ID, &u.StoreID, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unit of measure: %w", err)
		}
		uoms = append(uoms, u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating units of measure: %w", err)
	}
	return uoms, nil
}
