package repository

import (
	"context"
	"testing"
	"time"

	"backoffice/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, fx catalogFixture, product *domain.Product, qty int, paid bool, total *decimal.Decimal) *domain.Order {
	t.Helper()
	now := time.Now()
	order := &domain.Order{
		ID:          uuid.New(),
		StoreID:     fx.storeID,
		ClientName:  "Juan",
		ClientEmail: "juan@example.com",
		IsPaid:      paid,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items: []domain.OrderItem{{
			ID:              uuid.New(),
			ProductID:       product.ID,
			Quantity:        qty,
			TotalItemAmount: decimal.NewNullDecimal(product.Price.Mul(decimal.NewFromInt(int64(qty)))),
		}},
	}
	if total != nil {
		order.TotalAmountItemAndShipping = decimal.NewNullDecimal(*total)
	}
	require.NoError(t, NewOrderRepository(testDB).Create(context.Background(), order))
	return order
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	fx := seedCatalog(t)
	product := fx.product("Paint", "4800000000701", "350")
	require.NoError(t, NewProductRepository(testDB).Create(ctx, product))

	total := decimal.NewFromInt(750)
	order := seedOrder(t, fx, product, 2, false, &total)

	repo := NewOrderRepository(testDB)
	got, err := repo.FindByID(ctx, fx.storeID, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Paint", got.Items[0].ProductName)
	assert.Equal(t, "Tools", got.Items[0].CategoryName)
	assert.True(t, got.ItemsTotal().Equal(decimal.NewFromInt(700)))
	assert.True(t, got.TotalAmountItemAndShipping.Decimal.Equal(total))

	_, err = repo.FindByID(ctx, seedStore(t), order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	mine, err := repo.ListByClientEmail(ctx, fx.storeID, "JUAN@example.com")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestOrderRepository_PatchWritesSuppliedFields(t *testing.T) {
	ctx := context.Background()
	fx := seedCatalog(t)
	product := fx.product("Brush", "4800000000801", "80")
	require.NoError(t, NewProductRepository(testDB).Create(ctx, product))
	order := seedOrder(t, fx, product, 1, false, nil)

	repo := NewOrderRepository(testDB)
	paid := true
	url := "https://files.test/receipt.pdf"
	updated, err := repo.Patch(ctx, fx.storeID, order.ID, domain.OrderPatch{IsPaid: &paid, AcctgAttachedURL: &url})
	require.NoError(t, err)
	assert.True(t, updated.IsPaid)
	assert.Equal(t, url, updated.AcctgAttachedURL)
	assert.False(t, updated.OrderStatus)
	assert.Empty(t, updated.StoreRemarks)

	_, err = repo.Patch(ctx, fx.storeID, uuid.New(), domain.OrderPatch{IsPaid: &paid})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderRepository_PendingAndCounts(t *testing.T) {
	ctx := context.Background()
	fx := seedCatalog(t)
	product := fx.product("Tape", "4800000000901", "25")
	require.NoError(t, NewProductRepository(testDB).Create(ctx, product))

	total := decimal.RequireFromString("1500")
	seedOrder(t, fx, product, 1, true, &total)
	pendingWithTotal := seedOrder(t, fx, product, 2, false, &total)
	seedOrder(t, fx, product, 3, false, nil)

	repo := NewOrderRepository(testDB)
	counts, err := repo.Counts(ctx, fx.storeID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCounts{Paid: 1, Delivered: 0, Pending: 2}, counts)

	pending, err := repo.ListPending(ctx, fx.storeID)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	byID := map[uuid.UUID]domain.PendingOrder{}
	for _, p := range pending {
		byID[p.ID] = p
	}
	require.NotNil(t, byID[pendingWithTotal.ID].Total)
	assert.Equal(t, "1500.00", *byID[pendingWithTotal.ID].Total)

	paid, err := repo.ListPaid(ctx, fx.storeID)
	require.NoError(t, err)
	assert.Len(t, paid, 1)
}
