package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

var ErrStoreNotFound = fmt.Errorf("store %w", ErrNotFound)

// StoreRepository defines the interface for store data access
type StoreRepository interface {
	Create(ctx context.Context, store *domain.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Store, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) (*domain.Store, error)
	List(ctx context.Context) ([]*domain.Store, error)
}

type storeRepository struct {
	db *sql.DB
}

// NewStoreRepository creates a new instance of StoreRepository
func NewStoreRepository(db *sql.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) Create(ctx context.Context, store *domain.Store) error {
	query := `
		INSERT INTO stores (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.ExecContext(ctx, query, store.ID, store.Name, store.CreatedAt, store.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	return nil
}

func (r *storeRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	query := `SELECT id, name, created_at, updated_at FROM stores WHERE id = $1`

	store := &domain.Store{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&store.ID, &store.Name, &store.CreatedAt, &store.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to find store by ID: %w", err)
	}
	return store, nil
}

func (r *storeRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) (*domain.Store, error) {
	query := `
		UPDATE stores SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, created_at, updated_at
	`

	store := &domain.Store{}
	err := r.db.QueryRowContext(ctx, query, id, name).Scan(&store.ID, &store.Name, &store.CreatedAt, &store.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to update store: %w", err)
	}
	return store, nil
}

func (r *storeRepository) List(ctx context.Context) ([]*domain.Store, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM stores ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	stores := []*domain.Store{}
	for rows.Next() {
		store := &domain.Store{}
		if err := rows.Scan(&store.ID, &store.Name, &store.CreatedAt, &store.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, store)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stores: %w", err)
	}
	return stores, nil
}
