package repository

import (
	"context"
	"database/sql"
	"fmt"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrColorNotFound = fmt.Errorf("color %w", ErrNotFound)
	ErrColorInUse    = fmt.Errorf("color is %w by products", ErrInUse)
)

type colorRepository struct {
	t namedValueTable
}

// NewColorRepository creates the repository of product colors
func NewColorRepository(db *sql.DB) CatalogRepository[*domain.Color] {
	return &colorRepository{t: namedValueTable{db: db, table: "colors", notFound: ErrColorNotFound, inUse: ErrColorInUse}}
}

func (r *colorRepository) Create(ctx context.Context, c *domain.Color) error {
	return r.t.create(ctx, &c.StoreRecord, c.Name, c.Value)
}

func (r *colorRepository) Update(ctx context.Context, c *domain.Color) error {
	return r.t.update(ctx, &c.StoreRecord, c.Name, c.Value)
}

func (r *colorRepository) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	return r.t.delete(ctx, storeID, id)
}

func (r *colorRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*domain.Color, error) {
	c := &domain.Color{}
	if err := r.t.findByID(ctx, storeID, id, &c.StoreRecord, &c.Name, &c.Value); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *colorRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]*domain.Color, error) {
	colors := []*domain.Color{}
	err := r.t.list(ctx, storeID, func() (*domain.StoreRecord, *string, *string) {
		c := &domain.Color{}
		colors = append(colors, c)
		return &c.StoreRecord, &c.Name, &c.Value
	})
	if err != nil {
		return nil, err
	}
	return colors, nil
}
