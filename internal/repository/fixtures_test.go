package repository

import (
	"context"
	"testing"
	"time"

	"backoffice/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	storeID    uuid.UUID
	billboard  *domain.Billboard
	categoryID uuid.UUID
	sizeID     uuid.UUID
	colorID    uuid.UUID
	uomID      uuid.UUID
}

func record(storeID uuid.UUID) domain.StoreRecord {
	now := time.Now()
	return domain.StoreRecord{ID: uuid.New(), StoreID: storeID, CreatedAt: now, UpdatedAt: now}
}

func seedStore(t *testing.T) uuid.UUID {
	t.Helper()
	now := time.Now()
	store := &domain.Store{ID: uuid.New(), Name: "Store " + uuid.NewString()[:8], CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewStoreRepository(testDB).Create(context.Background(), store))
	return store.ID
}

func seedCatalog(t *testing.T) catalogFixture {
	t.Helper()
	ctx := context.Background()
	fx := catalogFixture{storeID: seedStore(t)}

	fx.billboard = &domain.Billboard{StoreRecord: record(fx.storeID), Label: "Home", ImageURL: "https://img.test/home.png"}
	require.NoError(t, NewBillboardRepository(testDB).Create(ctx, fx.billboard))

	category := &domain.Category{StoreRecord: record(fx.storeID), BillboardID: fx.billboard.ID, Name: "Tools"}
	require.NoError(t, NewCategoryRepository(testDB).Create(ctx, category))
	fx.categoryID = category.ID

	size := &domain.Size{StoreRecord: record(fx.storeID), Name: "Large", Value: "L"}
	require.NoError(t, NewSizeRepository(testDB).Create(ctx, size))
	fx.sizeID = size.ID

	color := &domain.Color{StoreRecord: record(fx.storeID), Name: "Red", Value: "#ff0000"}
	require.NoError(t, NewColorRepository(testDB).Create(ctx, color))
	fx.colorID = color.ID

	uom := &domain.UoM{StoreRecord: record(fx.storeID), Name: "pcs"}
	require.NoError(t, NewUoMRepository(testDB).Create(ctx, uom))
	fx.uomID = uom.ID

	return fx
}

func (fx catalogFixture) product(name, barCode string, price string) *domain.Product {
	now := time.Now()
	uomID := fx.uomID
	return &domain.Product{
		ID:         uuid.New(),
		StoreID:    fx.storeID,
		CategoryID: fx.categoryID,
		SizeID:     fx.sizeID,
		ColorID:    fx.colorID,
		UoMID:      &uomID,
		Name:       name,
		BarCode:    barCode,
		ItemDesc:   "desc",
		Price:      decimal.RequireFromString(price),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
