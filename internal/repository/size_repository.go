package repository

import (
	"context"
	"database/sql"
	"fmt"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrSizeNotFound = fmt.Errorf("size %w", ErrNotFound)
	ErrSizeInUse    = fmt.Errorf("size is %w by products", ErrInUse)
)

type sizeRepository struct {
	t namedValueTable
}

// NewSizeRepository creates the repository of product sizes
func NewSizeRepository(db *sql.DB) CatalogRepository[*domain.Size] {
	return &sizeRepository{t: namedValueTable{db: db, table: "sizes", notFound: ErrSizeNotFound, inUse: ErrSizeInUse}}
}

func (r *sizeRepository) Create(ctx context.Context, s *domain.Size) error {
	return r.t.create(ctx, &s.StoreRecord, s.Name, s.Value)
}

func (r *sizeRepository) Update(ctx context.Context, s *domain.Size) error {
	return r.t.update(ctx, &s.StoreRecord, s.Name, s.Value)
}

func (r *sizeRepository) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	return r.t.delete(ctx, storeID, id)
}

func (r *sizeRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*domain.Size, error) {
	s := &domain.Size{}
	if err := r.t.findByID(ctx, storeID, id, &s.StoreRecord, &s.Name, &s.Value); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *sizeRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]*domain.Size, error) {
	sizes := []*domain.Size{}
	err := r.t.list(ctx, storeID, func() (*domain.StoreRecord, *string, *string) {
		s := &domain.Size{}
		sizes = append(sizes, s)
		return &s.StoreRecord, &s.Name, &s.Value
	})
	if err != nil {
		return nil, err
	}
	return sizes, nil
}
