package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

// CatalogRepository is the store-scoped CRUD surface shared by billboards,
// categories, sizes, colors and units of measure. Rows of another store are
// reported as not found.
type CatalogRepository[T domain.Scoped] interface {
	Create(ctx context.Context, entity T) error
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, storeID, id uuid.UUID) error
	FindByID(ctx context.Context, storeID, id uuid.UUID) (T, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]T, error)
}

// namedValueTable implements the SQL for tables shaped (id, store_id, name, value, timestamps)
type namedValueTable struct {
	db       *sql.DB
	table    string
	notFound error
	inUse    error
}

func (t *namedValueTable) create(ctx context.Context, rec *domain.StoreRecord, name, value string) error {
	query := `INSERT INTO ` + t.table + ` (id, store_id, name, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := t.db.ExecContext(ctx, query, rec.ID, rec.StoreID, name, value, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return mapWriteError(err, ErrAlreadyExists, "create "+t.table)
	}
	return nil
}

func (t *namedValueTable) update(ctx context.Context, rec *domain.StoreRecord, name, value string) error {
	query := `UPDATE ` + t.table + ` SET name = $3, value = $4, updated_at = $5
		WHERE id = $1 AND store_id = $2`

	result, err := t.db.ExecContext(ctx, query, rec.ID, rec.StoreID, name, value, rec.UpdatedAt)
	if err != nil {
		return mapWriteError(err, ErrAlreadyExists, "update "+t.table)
	}
	return expectOneRow(result, t.notFound)
}

func (t *namedValueTable) delete(ctx context.Context, storeID, id uuid.UUID) error {
	result, err := t.db.ExecContext(ctx, `DELETE FROM `+t.table+` WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return mapDeleteError(err, t.inUse, "delete from "+t.table)
	}
	return expectOneRow(result, t.notFound)
}

func (t *namedValueTable) findByID(ctx context.Context, storeID, id uuid.UUID, rec *domain.StoreRecord, name, value *string) error {
	query := `SELECT id, store_id, name, value, created_at, updated_at FROM ` + t.table + `
		WHERE id = $1 AND store_id = $2`

	err := t.db.QueryRowContext(ctx, query, id, storeID).Scan(
		&rec.ID, &rec.StoreID, name, value, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t.notFound
		}
		return fmt.Errorf("failed to find %s row: %w", t.table, err)
	}
	return nil
}

// list calls next for every row; next returns the destinations of a fresh entity
func (t *namedValueTable) list(ctx context.Context, storeID uuid.UUID, next func() (*domain.StoreRecord, *string, *string)) error {
	query := `SELECT id, store_id, name, value, created_at, updated_at FROM ` + t.table + `
		WHERE store_id = $1 ORDER BY created_at DESC`

	rows, err := t.db.QueryContext(ctx, query, storeID)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", t.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, name, value := next()
		if err := rows.Scan(&rec.ID, &rec.StoreID, name, value, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan %s row: %w", t.table, err)
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating %s: %w", t.table, err)
	}
	return nil
}
