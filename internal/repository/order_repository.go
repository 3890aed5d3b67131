package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"backoffice/internal/database"
	"backoffice/internal/domain"

	"github.com/google/uuid"
)

var ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, storeID, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, storeID uuid.UUID) ([]*domain.Order, error)
	ListByClientEmail(ctx context.Context, storeID uuid.UUID, email string) ([]*domain.Order, error)
	ListPaid(ctx context.Context, storeID uuid.UUID) ([]*domain.Order, error)
	ListPending(ctx context.Context, storeID uuid.UUID) ([]domain.PendingOrder, error)
	Counts(ctx context.Context, storeID uuid.UUID) (domain.OrderCounts, error)
	Patch(ctx context.Context, storeID, id uuid.UUID, patch domain.OrderPatch) (*domain.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderSelect = `
	SELECT id, store_id, client_name, client_email, company_name, po_number, address,
	       contact_number, attached_po_url, total_amount_item_and_shipping, is_paid, order_status,
	       acctg_remarks, acctg_attached_url, store_remarks, store_attached_url, created_at, updated_at
	FROM orders
`

func scanOrder(row interface{ Scan(...interface{}) error }) (*domain.Order, error) {
	o := &domain.Order{Items: []domain.OrderItem{}}
	err := row.Scan(
		&o.ID,
		&o.StoreID,
		&o.ClientName,
		&o.ClientEmail,
		&o.CompanyName,
		&o.PONumber,
		&o.Address,
		&o.ContactNumber,
		&o.AttachedPOURL,
		&o.TotalAmountItemAndShipping,
		&o.IsPaid,
		&o.OrderStatus,
		&o.AcctgRemarks,
		&o.AcctgAttachedURL,
		&o.StoreRemarks,
		&o.StoreAttachedURL,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Create inserts the order and its items in one transaction
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	orderQuery := `
		INSERT INTO orders (id, store_id, client_name, client_email, company_name, po_number, address,
		                    contact_number, attached_po_url, total_amount_item_and_shipping, is_paid,
		                    order_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, quantity, total_item_amount)
		VALUES ($1, $2, $3, $4, $5)
	`

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, orderQuery,
			order.ID, order.StoreID, order.ClientName, order.ClientEmail, order.CompanyName, order.PONumber,
			order.Address, order.ContactNumber, order.AttachedPOURL, order.TotalAmountItemAndShipping,
			order.IsPaid, order.OrderStatus, order.CreatedAt, order.UpdatedAt)
		if err != nil {
			return mapWriteError(err, ErrAlreadyExists, "create order")
		}

		for _, item := range order.Items {
			_, err := tx.ExecContext(ctx, itemQuery,
				item.ID, order.ID, item.ProductID, item.Quantity, item.TotalItemAmount)
			if err != nil {
				return mapWriteError(err, ErrAlreadyExists, "create order item")
			}
		}
		return nil
	})
}

// FindByID retrieves an order of the store with its items
func (r *orderRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+` WHERE id = $1 AND store_id = $2`, id, storeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := r.loadItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// List retrieves the orders of a store, newest first
func (r *orderRepository) List(ctx context.Context, storeID uuid.UUID) ([]*domain.Order, error) {
	return r.query(ctx, orderSelect+` WHERE store_id = $1 ORDER BY created_at DESC`, storeID)
}

func (r *orderRepository) ListByClientEmail(ctx context.Context, storeID uuid.UUID, email string) ([]*domain.Order, error) {
	return r.query(ctx, orderSelect+`
		WHERE store_id = $1 AND LOWER(client_email) = LOWER($2)
		ORDER BY created_at DESC`, storeID, email)
}

// ListPaid retrieves the paid orders of a store with items, used by reports
func (r *orderRepository) ListPaid(ctx context.Context, storeID uuid.UUID) ([]*domain.Order, error) {
	return r.query(ctx, orderSelect+` WHERE store_id = $1 AND is_paid = TRUE ORDER BY created_at DESC`, storeID)
}

// ListPending returns the unpaid orders of a store, newest first
func (r *orderRepository) ListPending(ctx context.Context, storeID uuid.UUID) ([]domain.PendingOrder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_name, client_email, total_amount_item_and_shipping::text
		FROM orders
		WHERE store_id = $1 AND is_paid = FALSE
		ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending orders: %w", err)
	}
	defer rows.Close()

	pending := []domain.PendingOrder{}
	for rows.Next() {
		var p domain.PendingOrder
		var total sql.NullString
		if err := rows.Scan(&p.ID, &p.ClientName, &p.ClientEmail, &total); err != nil {
			return nil, fmt.Errorf("failed to scan pending order: %w", err)
		}
		if total.Valid {
			p.Total = &total.String
		}
		pending = append(pending, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending orders: %w", err)
	}
	return pending, nil
}

// Counts returns the paid, delivered and pending order counters of a store
func (r *orderRepository) Counts(ctx context.Context, storeID uuid.UUID) (domain.OrderCounts, error) {
	var counts domain.OrderCounts
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE is_paid),
		       COUNT(*) FILTER (WHERE order_status),
		       COUNT(*) FILTER (WHERE NOT is_paid)
		FROM orders
		WHERE store_id = $1`, storeID).Scan(&counts.Paid, &counts.Delivered, &counts.Pending)
	if err != nil {
		return counts, fmt.Errorf("failed to count orders: %w", err)
	}
	return counts, nil
}

// Patch writes exactly the fields present in patch and returns the updated order
func (r *orderRepository) Patch(ctx context.Context, storeID, id uuid.UUID, patch domain.OrderPatch) (*domain.Order, error) {
	args := []interface{}{id, storeID}
	sets := []string{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.IsPaid != nil {
		add("is_paid", *patch.IsPaid)
	}
	if patch.AcctgRemarks != nil {
		add("acctg_remarks", *patch.AcctgRemarks)
	}
	if patch.AcctgAttachedURL != nil {
		add("acctg_attached_url", *patch.AcctgAttachedURL)
	}
	if patch.OrderStatus != nil {
		add("order_status", *patch.OrderStatus)
	}
	if patch.StoreRemarks != nil {
		add("store_remarks", *patch.StoreRemarks)
	}
	if patch.StoreAttachedURL != nil {
		add("store_attached_url", *patch.StoreAttachedURL)
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE orders SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 AND store_id = $2`
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if err := expectOneRow(result, ErrOrderNotFound); err != nil {
		return nil, err
	}

	return r.FindByID(ctx, storeID, id)
}

func (r *orderRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems attaches items, with product and category names, to orders in a single query
func (r *orderRepository) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.total_item_amount,
		       p.name, p.price, p.bar_code, COALESCE(c.name, '')
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE oi.order_id = ANY($1::text[]::uuid[])
		ORDER BY p.name ASC`, uuidStrings(ids))
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.TotalItemAmount,
			&item.ProductName,
			&item.ProductPrice,
			&item.BarCode,
			&item.CategoryName,
		)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}
	return nil
}
