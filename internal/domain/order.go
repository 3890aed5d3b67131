package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a purchase placed against a store
type Order struct {
	ID                         uuid.UUID           `json:"id"`
	StoreID                    uuid.UUID           `json:"storeId"`
	ClientName                 string              `json:"clientName"`
	ClientEmail                string              `json:"clientEmail"`
	CompanyName                string              `json:"companyName"`
	PONumber                   string              `json:"poNumber"`
	Address                    string              `json:"address"`
	ContactNumber              string              `json:"contactNumber"`
	AttachedPOURL              string              `json:"attachedPoUrl"`
	TotalAmountItemAndShipping decimal.NullDecimal `json:"totalAmountItemAndShipping"`
	IsPaid                     bool                `json:"isPaid"`
	OrderStatus                bool                `json:"orderStatus"`
	AcctgRemarks               string              `json:"acctgRemarks"`
	AcctgAttachedURL           string              `json:"acctgAttachedUrl"`
	StoreRemarks               string              `json:"storeRemarks"`
	StoreAttachedURL           string              `json:"storeAttachedUrl"`
	CreatedAt                  time.Time           `json:"createdAt"`
	UpdatedAt                  time.Time           `json:"updatedAt"`
	Items                      []OrderItem         `json:"orderItems"`
}

// ItemsTotal sums the item amounts; items without an amount count as zero
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		if item.TotalItemAmount.Valid {
			total = total.Add(item.TotalItemAmount.Decimal)
		}
	}
	return total
}

// ProductNames joins the names of the ordered products
func (o *Order) ProductNames() string {
	names := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		names = append(names, item.ProductName)
	}
	return strings.Join(names, ", ")
}

// OrderItem is one product line of an order
type OrderItem struct {
	ID              uuid.UUID           `json:"id"`
	OrderID         uuid.UUID           `json:"orderId"`
	ProductID       uuid.UUID           `json:"productId"`
	Quantity        int                 `json:"quantity"`
	TotalItemAmount decimal.NullDecimal `json:"totalItemAmount"`

	ProductName  string          `json:"productName,omitempty"`
	ProductPrice decimal.Decimal `json:"productPrice"`
	BarCode      string          `json:"barCode,omitempty"`
	CategoryName string          `json:"categoryName,omitempty"`
}

// OrderPatch carries the fields of an order update; nil fields are left untouched
type OrderPatch struct {
	IsPaid           *bool
	AcctgRemarks     *string
	AcctgAttachedURL *string
	OrderStatus      *bool
	StoreRemarks     *string
	StoreAttachedURL *string
}

// Empty reports whether the patch changes nothing
func (p *OrderPatch) Empty() bool {
	return p.IsPaid == nil && p.AcctgRemarks == nil && p.AcctgAttachedURL == nil &&
		p.OrderStatus == nil && p.StoreRemarks == nil && p.StoreAttachedURL == nil
}

// TouchesAccounting reports whether the patch changes payment state or its
// accounting remarks and attachment
func (p *OrderPatch) TouchesAccounting() bool {
	return p.IsPaid != nil || p.AcctgRemarks != nil || p.AcctgAttachedURL != nil
}

// PendingOrder is the dashboard summary of an unpaid order
type PendingOrder struct {
	ID          uuid.UUID `json:"id"`
	ClientName  string    `json:"clientName"`
	ClientEmail string    `json:"clientEmail"`
	Total       *string   `json:"totalAmountItemAndShipping"`
}

// OrderCounts are the dashboard counters of a store
type OrderCounts struct {
	Paid      int `json:"paid"`
	Delivered int `json:"delivered"`
	Pending   int `json:"pending"`
}

// CheckoutLine is one requested product of a checkout
type CheckoutLine struct {
	ProductID uuid.UUID
	Quantity  int
}
