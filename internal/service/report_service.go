package service

import (
	"context"
	"sort"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportService aggregates paid orders into dashboards and the accounting report
type ReportService interface {
	Dashboard(ctx context.Context, storeID uuid.UUID) (*domain.Dashboard, error)
	Accounting(ctx context.Context, storeID uuid.UUID) (*domain.AccountingReport, error)
}

type reportService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	now      func() time.Time
}

func NewReportService(orders repository.OrderRepository, products repository.ProductRepository) ReportService {
	return &reportService{orders: orders, products: products, now: time.Now}
}

func (s *reportService) Dashboard(ctx context.Context, storeID uuid.UUID) (*domain.Dashboard, error) {
	paid, err := s.orders.ListPaid(ctx, storeID)
	if err != nil {
		return nil, err
	}
	counts, err := s.orders.Counts(ctx, storeID)
	if err != nil {
		return nil, err
	}
	pending, err := s.orders.ListPending(ctx, storeID)
	if err != nil {
		return nil, err
	}
	stock, err := s.products.Count(ctx, storeID, true)
	if err != nil {
		return nil, err
	}

	return &domain.Dashboard{
		TotalRevenue:    totalRevenue(paid),
		PaidOrders:      counts.Paid,
		DeliveredOrders: counts.Delivered,
		PendingCount:    counts.Pending,
		PendingOrders:   pending,
		StockCount:      stock,
		GraphRevenue:    graphRevenue(paid, s.now()),
	}, nil
}

func (s *reportService) Accounting(ctx context.Context, storeID uuid.UUID) (*domain.AccountingReport, error) {
	paid, err := s.orders.ListPaid(ctx, storeID)
	if err != nil {
		return nil, err
	}
	products, err := s.products.Count(ctx, storeID, false)
	if err != nil {
		return nil, err
	}

	return &domain.AccountingReport{
		TotalRevenue:         totalRevenue(paid),
		TotalOrders:          len(paid),
		TotalProducts:        products,
		SalesThisMonth:       salesInMonth(paid, s.now()),
		MonthlyRevenue:       monthlyRevenue(paid),
		CategoryDistribution: categoryDistribution(paid),
	}, nil
}

// totalRevenue sums order totals; orders without a total count as zero
func totalRevenue(orders []*domain.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o.TotalAmountItemAndShipping.Valid {
			total = total.Add(o.TotalAmountItemAndShipping.Decimal)
		}
	}
	return domain.RoundMoney(total)
}

// graphRevenue returns Jan..Dec of now's year, each the sum of price * quantity
// of the items ordered that month
func graphRevenue(orders []*domain.Order, now time.Time) []domain.RevenuePoint {
	var months [12]decimal.Decimal
	for _, o := range orders {
		if o.CreatedAt.Year() != now.Year() {
			continue
		}
		m := o.CreatedAt.Month() - 1
		for _, item := range o.Items {
			months[m] = months[m].Add(item.ProductPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	points := make([]domain.RevenuePoint, 12)
	for i := range months {
		points[i] = domain.RevenuePoint{
			Name:  time.Month(i + 1).String()[:3],
			Total: domain.RoundMoney(months[i]),
		}
	}
	return points
}

// monthlyRevenue groups order totals by calendar month name, January first;
// months without paid orders are omitted
func monthlyRevenue(orders []*domain.Order) []domain.RevenuePoint {
	var months [12]decimal.Decimal
	var seen [12]bool
	for _, o := range orders {
		m := o.CreatedAt.Month() - 1
		seen[m] = true
		if o.TotalAmountItemAndShipping.Valid {
			months[m] = months[m].Add(o.TotalAmountItemAndShipping.Decimal)
		}
	}

	points := []domain.RevenuePoint{}
	for i := range months {
		if seen[i] {
			points = append(points, domain.RevenuePoint{Name: time.Month(i + 1).String(), Total: domain.RoundMoney(months[i])})
		}
	}
	return points
}

func salesInMonth(orders []*domain.Order, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o.CreatedAt.Year() == now.Year() && o.CreatedAt.Month() == now.Month() && o.TotalAmountItemAndShipping.Valid {
			total = total.Add(o.TotalAmountItemAndShipping.Decimal)
		}
	}
	return domain.RoundMoney(total)
}

// categoryDistribution sums item totals per category name, sorted by name
func categoryDistribution(orders []*domain.Order) []domain.CategoryShare {
	byName := map[string]decimal.Decimal{}
	for _, o := range orders {
		for _, item := range o.Items {
			name := item.CategoryName
			if name == "" {
				name = domain.UncategorizedLabel
			}
			amount := byName[name]
			if item.TotalItemAmount.Valid {
				amount = amount.Add(item.TotalItemAmount.Decimal)
			}
			byName[name] = amount
		}
	}

	shares := make([]domain.CategoryShare, 0, len(byName))
	for name, value := range byName {
		shares = append(shares, domain.CategoryShare{Name: name, Value: domain.RoundMoney(value)})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].Name < shares[j].Name })
	return shares
}
