package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/events"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutInput is a storefront order request
type CheckoutInput struct {
	ClientName    string
	ClientEmail   string
	CompanyName   string
	PONumber      string
	Address       string
	ContactNumber string
	AttachedPOURL string
	ShippingFee   decimal.Decimal
	Lines         []domain.CheckoutLine
}

// OrderService tracks the order lifecycle
type OrderService interface {
	List(ctx context.Context, storeID uuid.UUID) ([]*domain.Order, error)
	Get(ctx context.Context, storeID, id uuid.UUID) (*domain.Order, error)
	Pending(ctx context.Context, storeID uuid.UUID) ([]domain.PendingOrder, error)
	Patch(ctx context.Context, storeID, id uuid.UUID, role string, patch domain.OrderPatch) (*domain.Order, error)
	Checkout(ctx context.Context, storeID uuid.UUID, in CheckoutInput) (*domain.Order, error)
	MyOrders(ctx context.Context, storeID uuid.UUID, email string) ([]*domain.Order, error)
}

type orderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, publisher events.Publisher, logger *zap.Logger) OrderService {
	return &orderService{orders: orders, products: products, publisher: publisher, logger: logger, now: time.Now}
}

func (s *orderService) List(ctx context.Context, storeID uuid.UUID) ([]*domain.Order, error) {
	return s.orders.List(ctx, storeID)
}

func (s *orderService) Get(ctx context.Context, storeID, id uuid.UUID) (*domain.Order, error) {
	return s.orders.FindByID(ctx, storeID, id)
}

func (s *orderService) Pending(ctx context.Context, storeID uuid.UUID) ([]domain.PendingOrder, error) {
	return s.orders.ListPending(ctx, storeID)
}

// Patch writes the supplied fields. Accounting fields need a role that may settle orders.
func (s *orderService) Patch(ctx context.Context, storeID, id uuid.UUID, role string, patch domain.OrderPatch) (*domain.Order, error) {
	if patch.Empty() {
		return nil, invalid("no fields to update")
	}
	if patch.TouchesAccounting() && !domain.CanSettleOrders(role) {
		return nil, ErrForbidden
	}
	for field, v := range map[string]*string{
		"acctgAttachedUrl": patch.AcctgAttachedURL,
		"storeAttachedUrl": patch.StoreAttachedURL,
	} {
		if v != nil && *v != "" && !isURL(*v) {
			return nil, invalid("%s must be a URL", field)
		}
	}

	before, err := s.orders.FindByID(ctx, storeID, id)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Patch(ctx, storeID, id, patch)
	if err != nil {
		return nil, err
	}

	if !before.IsPaid && order.IsPaid {
		s.publish(ctx, events.SubjectOrderPaid, order)
	}
	if !before.OrderStatus && order.OrderStatus {
		s.publish(ctx, events.SubjectOrderDelivered, order)
	}
	return order, nil
}

func isURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Checkout places an order for active products of the store in one transaction
func (s *orderService) Checkout(ctx context.Context, storeID uuid.UUID, in CheckoutInput) (*domain.Order, error) {
	if len(in.Lines) == 0 {
		return nil, invalid("order must contain at least one item")
	}
	if strings.TrimSpace(in.ClientName) == "" || strings.TrimSpace(in.ClientEmail) == "" {
		return nil, invalid("clientName and clientEmail are required")
	}
	if in.ShippingFee.IsNegative() {
		return nil, invalid("shippingFee must not be negative")
	}
	if in.AttachedPOURL != "" && !isURL(in.AttachedPOURL) {
		return nil, invalid("attachedPoUrl must be a URL")
	}

	ids := make([]uuid.UUID, 0, len(in.Lines))
	for _, line := range in.Lines {
		if line.Quantity <= 0 {
			return nil, invalid("quantity must be positive")
		}
		ids = append(ids, line.ProductID)
	}

	found, err := s.products.FindByIDs(ctx, storeID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	now := s.now()
	order := &domain.Order{
		ID:            uuid.New(),
		StoreID:       storeID,
		ClientName:    strings.TrimSpace(in.ClientName),
		ClientEmail:   normalizeEmail(in.ClientEmail),
		CompanyName:   strings.TrimSpace(in.CompanyName),
		PONumber:      strings.TrimSpace(in.PONumber),
		Address:       strings.TrimSpace(in.Address),
		ContactNumber: strings.TrimSpace(in.ContactNumber),
		AttachedPOURL: in.AttachedPOURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, line := range in.Lines {
		product, ok := byID[line.ProductID]
		if !ok || product.IsArchived {
			return nil, invalid("product %s is not available", line.ProductID)
		}
		amount := domain.RoundMoney(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		order.Items = append(order.Items, domain.OrderItem{
			ID:              uuid.New(),
			OrderID:         order.ID,
			ProductID:       product.ID,
			Quantity:        line.Quantity,
			TotalItemAmount: decimal.NewNullDecimal(amount),
			ProductName:     product.Name,
			ProductPrice:    product.Price,
			BarCode:         product.BarCode,
			CategoryName:    product.CategoryName,
		})
	}
	total := domain.RoundMoney(order.ItemsTotal().Add(in.ShippingFee))
	order.TotalAmountItemAndShipping = decimal.NewNullDecimal(total)

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("store_id", storeID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("total", total.StringFixed(2)),
	)
	return order, nil
}

func (s *orderService) MyOrders(ctx context.Context, storeID uuid.UUID, email string) ([]*domain.Order, error) {
	return s.orders.ListByClientEmail(ctx, storeID, normalizeEmail(email))
}

func (s *orderService) publish(ctx context.Context, subject string, order *domain.Order) {
	event := events.OrderEvent{
		StoreID:    order.StoreID,
		OrderID:    order.ID,
		ClientName: order.ClientName,
		At:         s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.logger.Warn("Failed to publish order event", zap.String("subject", subject), zap.Error(err))
	}
}
