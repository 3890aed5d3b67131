package staging

import (
	"context"

	"backoffice/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductSource loads the product being staged
type ProductSource interface {
	Get(ctx context.Context, storeID, id uuid.UUID) (*domain.Product, error)
}

// BulkWriter applies a submitted worksheet
type BulkWriter interface {
	UpdatePrices(ctx context.Context, storeID uuid.UUID, updates []domain.PriceUpdate) (int, error)
	UpdateFields(ctx context.Context, storeID uuid.UUID, updates []domain.ProductFieldUpdate) (int, error)
	Deactivate(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) (int, error)
}

// Manager runs the stage, edit and submit cycle against a Store
type Manager struct {
	store    Store
	products ProductSource
	writer   BulkWriter
	logger   *zap.Logger
}

func NewManager(store Store, products ProductSource, writer BulkWriter, logger *zap.Logger) *Manager {
	return &Manager{store: store, products: products, writer: writer, logger: logger}
}

func (m *Manager) Get(ctx context.Context, key Key) (*Worksheet, error) {
	return m.store.Load(ctx, key)
}

// Add stages a product of key's store
func (m *Manager) Add(ctx context.Context, key Key, productID uuid.UUID) (*Worksheet, error) {
	return m.update(ctx, key, func(w *Worksheet) error {
		if w.index(productID) >= 0 {
			return ErrAlreadyStaged
		}
		p, err := m.products.Get(ctx, key.StoreID, productID)
		if err != nil {
			return err
		}
		return w.Stage(p)
	})
}

func (m *Manager) Remove(ctx context.Context, key Key, productID uuid.UUID) (*Worksheet, error) {
	return m.update(ctx, key, func(w *Worksheet) error {
		return w.Unstage(productID)
	})
}

func (m *Manager) Edit(ctx context.Context, key Key, productID uuid.UUID, field, value string) (*Worksheet, error) {
	return m.update(ctx, key, func(w *Worksheet) error {
		return w.Edit(productID, field, value)
	})
}

// Submit sends the worksheet to the bulk operation of its mode and clears it.
// The worksheet is kept when the write fails.
func (m *Manager) Submit(ctx context.Context, key Key) (int, error) {
	w, err := m.store.Load(ctx, key)
	if err != nil {
		return 0, err
	}
	if w.HasErrors() {
		return 0, ErrHasErrors
	}

	var count int
	switch key.Mode {
	case ModePrice:
		updates := w.PriceUpdates()
		if len(updates) == 0 {
			return 0, ErrNoChanges
		}
		count, err = m.writer.UpdatePrices(ctx, key.StoreID, updates)
	case ModeFields:
		updates := w.FieldUpdates()
		if len(updates) == 0 {
			return 0, ErrNoChanges
		}
		count, err = m.writer.UpdateFields(ctx, key.StoreID, updates)
	case ModeDeactivate:
		ids := w.ProductIDs()
		if len(ids) == 0 {
			return 0, ErrNoChanges
		}
		count, err = m.writer.Deactivate(ctx, key.StoreID, ids)
	default:
		return 0, ErrUnknownMode
	}
	if err != nil {
		return 0, err
	}

	if err := m.store.Delete(ctx, key); err != nil {
		m.logger.Warn("Failed to clear submitted worksheet", zap.String("key", key.String()), zap.Error(err))
	}
	m.logger.Info("Worksheet submitted",
		zap.String("store_id", key.StoreID.String()),
		zap.String("mode", string(key.Mode)),
		zap.Int("count", count),
	)
	return count, nil
}

func (m *Manager) Discard(ctx context.Context, key Key) error {
	return m.store.Delete(ctx, key)
}

func (m *Manager) update(ctx context.Context, key Key, fn func(*Worksheet) error) (*Worksheet, error) {
	w, err := m.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, key, w); err != nil {
		return nil, err
	}
	return w, nil
}
