package service

import (
	"context"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/repository"

	"github.com/google/uuid"
)

// CatalogService provides store-scoped CRUD for billboards, categories, sizes,
// colors and units of measure. The repository enforces store scoping; the
// service stamps identity and timestamps.
type CatalogService[T domain.Scoped] struct {
	repo repository.CatalogRepository[T]
	now  func() time.Time
}

func NewCatalogService[T domain.Scoped](repo repository.CatalogRepository[T]) *CatalogService[T] {
	return &CatalogService[T]{repo: repo, now: time.Now}
}

func (s *CatalogService[T]) List(ctx context.Context, storeID uuid.UUID) ([]T, error) {
	return s.repo.ListByStore(ctx, storeID)
}

func (s *CatalogService[T]) Get(ctx context.Context, storeID, id uuid.UUID) (T, error) {
	return s.repo.FindByID(ctx, storeID, id)
}

func (s *CatalogService[T]) Create(ctx context.Context, storeID uuid.UUID, entity T) (T, error) {
	now := s.now()
	rec := entity.Record()
	rec.ID = uuid.New()
	rec.StoreID = storeID
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := s.repo.Create(ctx, entity); err != nil {
		var zero T
		return zero, err
	}
	return s.repo.FindByID(ctx, storeID, rec.ID)
}

// Update overwrites the editable fields of the row id and returns the stored row
func (s *CatalogService[T]) Update(ctx context.Context, storeID, id uuid.UUID, entity T) (T, error) {
	rec := entity.Record()
	rec.ID = id
	rec.StoreID = storeID
	rec.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, entity); err != nil {
		var zero T
		return zero, err
	}
	return s.repo.FindByID(ctx, storeID, id)
}

func (s *CatalogService[T]) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	return s.repo.Delete(ctx, storeID, id)
}
