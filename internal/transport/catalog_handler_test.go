package transport

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"backoffice/internal/domain"
	"backoffice/internal/repository"
	"backoffice/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memCatalog is an in-memory CatalogRepository
type memCatalog[T domain.Scoped] struct {
	rows  map[uuid.UUID]T
	inUse map[uuid.UUID]bool
}

func newMemCatalog[T domain.Scoped]() *memCatalog[T] {
	return &memCatalog[T]{rows: map[uuid.UUID]T{}, inUse: map[uuid.UUID]bool{}}
}

func (m *memCatalog[T]) Create(ctx context.Context, entity T) error {
	m.rows[entity.Record().ID] = entity
	return nil
}

func (m *memCatalog[T]) Update(ctx context.Context, entity T) error {
	if _, err := m.FindByID(ctx, entity.Record().StoreID, entity.Record().ID); err != nil {
		return err
	}
	m.rows[entity.Record().ID] = entity
	return nil
}

func (m *memCatalog[T]) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	if _, err := m.FindByID(ctx, storeID, id); err != nil {
		return err
	}
	if m.inUse[id] {
		return repository.ErrInUse
	}
	delete(m.rows, id)
	return nil
}

func (m *memCatalog[T]) FindByID(ctx context.Context, storeID, id uuid.UUID) (T, error) {
	row, ok := m.rows[id]
	if !ok || row.Record().StoreID != storeID {
		var zero T
		return zero, repository.ErrNotFound
	}
	return row, nil
}

func (m *memCatalog[T]) ListByStore(ctx context.Context, storeID uuid.UUID) ([]T, error) {
	rows := []T{}
	for _, row := range m.rows {
		if row.Record().StoreID == storeID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func TestBillboardLifecycle(t *testing.T) {
	repo := newMemCatalog[*domain.Billboard]()
	router := storeRouter(NewCatalogHandler[*domain.Billboard, BillboardRequest](
		"billboards", "Billboard", service.NewCatalogService[*domain.Billboard](repo), zap.NewNop(),
	))
	storeID := uuid.New()
	admin := signIn(t, domain.RoleAdministrator, storeID)
	base := fmt.Sprintf("/api/%s/billboards", storeID)

	w := do(t, router, http.MethodPost, base, admin.token, BillboardRequest{Label: "Summer", ImageURL: "not a url"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "imageUrl")

	w = do(t, router, http.MethodPost, base, admin.token, BillboardRequest{Label: "Summer", ImageURL: "https://img.example.com/s.png"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created domain.Billboard
	decode(t, w, &created)
	assert.Equal(t, storeID, created.StoreID)
	assert.NotEqual(t, uuid.Nil, created.ID)

	// reads are public
	w = do(t, router, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []domain.Billboard
	decode(t, w, &listed)
	require.Len(t, listed, 1)

	w = do(t, router, http.MethodPatch, fmt.Sprintf("%s/%s", base, created.ID), admin.token, BillboardRequest{Label: "Winter", ImageURL: "https://img.example.com/w.png"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, router, http.MethodGet, fmt.Sprintf("%s/%s", base, created.ID), "", nil)
	var got domain.Billboard
	decode(t, w, &got)
	assert.Equal(t, "Winter", got.Label)

	repo.inUse[created.ID] = true
	w = do(t, router, http.MethodDelete, fmt.Sprintf("%s/%s", base, created.ID), admin.token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	repo.inUse[created.ID] = false
	w = do(t, router, http.MethodDelete, fmt.Sprintf("%s/%s", base, created.ID), admin.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodGet, fmt.Sprintf("%s/%s", base, created.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogWritePermissions(t *testing.T) {
	router := storeRouter(NewCatalogHandler[*domain.UoM, UoMRequest](
		"uoms", "Unit of measure", service.NewCatalogService[*domain.UoM](newMemCatalog[*domain.UoM]()), zap.NewNop(),
	))
	storeID := uuid.New()
	base := fmt.Sprintf("/api/%s/uoms", storeID)

	user := signIn(t, domain.RoleUser, storeID)
	assert.Equal(t, http.StatusForbidden, do(t, router, http.MethodPost, base, user.token, UoMRequest{Name: "box"}).Code)

	acctg := signIn(t, domain.RoleAcctg, storeID)
	w := do(t, router, http.MethodPost, base, acctg.token, UoMRequest{Name: "box"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var uom domain.UoM
	decode(t, w, &uom)

	w = do(t, router, http.MethodDelete, fmt.Sprintf("%s/%s", base, uom.ID), acctg.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
