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
	ErrBillboardNotFound = fmt.Errorf("billboard %w", ErrNotFound)
	ErrBillboardInUse    = fmt.Errorf("billboard is %w by categories", ErrInUse)
)

type billboardRepository struct {
	db *sql.DB
}

// NewBillboardRepository creates the repository of store billboards
func NewBillboardRepository(db *sql.DB) CatalogRepository[*domain.Billboard] {
	return &billboardRepository{db: db}
}

func (r *billboardRepository) Create(ctx context.Context, b *domain.Billboard) error {
	query := `
		INSERT INTO billboards (id, store_id, label, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query, b.ID, b.StoreID, b.Label, b.ImageURL, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return mapWriteError(err, ErrAlreadyExists, "create billboard")
	}
	return nil
}

func (r *billboardRepository) Update(ctx context.Context, b *domain.Billboard) error {
	query := `
		UPDATE billboards SET label = $3, image_url = $4, updated_at = $5
		WHERE id = $1 AND store_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, b.ID, b.StoreID, b.Label, b.ImageURL, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update billboard: %w", err)
	}
	return expectOneRow(result, ErrBillboardNotFound)
}

func (r *billboardRepository) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM billboards WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return mapDeleteError(err, ErrBillboardInUse, "delete billboard")
	}
	return expectOneRow(result, ErrBillboardNotFound)
}

func (r *billboardRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*domain.Billboard, error) {
	query := `
		SELECT id, store_id, label, image_url, created_at, updated_at
		FROM billboards
		WHERE id = $1 AND store_id = $2
	`

	b := &domain.Billboard{}
	err := r.db.QueryRowContext(ctx, query, id, storeID).Scan(
		&b.ID, &b.StoreID, &b.Label, &b.ImageURL, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBillboardNotFound
		}
		return nil, fmt.Errorf("failed to find billboard by ID: %w", err)
	}
	return b, nil
}

func (r *billboardRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]*domain.Billboard, error) {
	query := `
		SELECT id, store_id, label, image_url, created_at, updated_at
		FROM billboards
		WHERE store_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list billboards: %w", err)
	}
	defer rows.Close()

	billboards := []*domain.Billboard{}
	for rows.Next() {
		b := &domain.Billboard{}
		if err := rows.Scan(&b.ID, &b.StoreID, &b.Label, &b.ImageURL, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan billboard: %w", err)
		}
		billboards = append(billboards, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating billboards: %w", err)
	}
	return billboards, nil
}
