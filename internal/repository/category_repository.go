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
	ErrCategoryNotFound      = fmt.Errorf("category %w", ErrNotFound)
	ErrCategoryAlreadyExists = fmt.Errorf("category with this name %w", ErrAlreadyExists)
	ErrCategoryInUse         = fmt.Errorf("category is %w by products", ErrInUse)
)

// categories always come back with the label of their billboard
const categorySelect = `
	SELECT c.id, c.store_id, c.billboard_id, b.label, c.name, c.created_at, c.updated_at
	FROM categories c JOIN billboards b ON b.id = c.billboard_id`

type categoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) CatalogRepository[*domain.Category] {
	return &categoryRepository{db: db}
}

func scanCategory(row interface{ Scan(...interface{}) error }) (*domain.Category, error) {
	c := &domain.Category{}
	err := row.Scan(&c.ID, &c.StoreID, &c.BillboardID, &c.BillboardLabel, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create fails with ErrInvalidReference when the billboard is missing
func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, store_id, billboard_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.StoreID, c.BillboardID, c.Name, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return mapWriteError(err, ErrCategoryAlreadyExists, "create category")
	}
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, c *domain.Category) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE categories SET billboard_id = $3, name = $4, updated_at = $5 WHERE id = $1 AND store_id = $2`,
		c.ID, c.StoreID, c.BillboardID, c.Name, c.UpdatedAt)
	if err != nil {
		return mapWriteError(err, ErrCategoryAlreadyExists, "update category")
	}
	return expectOneRow(result, ErrCategoryNotFound)
}

func (r *categoryRepository) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return mapDeleteError(err, ErrCategoryInUse, "delete category")
	}
	return expectOneRow(result, ErrCategoryNotFound)
}

func (r *categoryRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, categorySelect+` WHERE c.store_id = $1 ORDER BY c.created_at DESC`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *categoryRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*domain.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, categorySelect+` WHERE c.id = $1 AND c.store_id = $2`, id, storeID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrCategoryNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return c, nil
}
