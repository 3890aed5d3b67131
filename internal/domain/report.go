package domain

import "github.com/shopspring/decimal"

// RevenuePoint is one bar of a revenue chart
type RevenuePoint struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// CategoryShare is the revenue attributed to one category
type CategoryShare struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Dashboard is the overview shown on a store's landing page
type Dashboard struct {
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	PaidOrders      int             `json:"paidOrders"`
	DeliveredOrders int             `json:"deliveredOrders"`
	PendingCount    int             `json:"pendingCount"`
	PendingOrders   []PendingOrder  `json:"pendingOrders"`
	StockCount      int             `json:"stockCount"`
	GraphRevenue    []RevenuePoint  `json:"graphRevenue"`
}

// AccountingReport is the financial overview of paid orders
type AccountingReport struct {
	TotalRevenue         decimal.Decimal `json:"totalRevenue"`
	TotalOrders          int             `json:"totalOrders"`
	TotalProducts        int             `json:"totalProducts"`
	SalesThisMonth       decimal.Decimal `json:"salesThisMonth"`
	MonthlyRevenue       []RevenuePoint  `json:"monthlyRevenue"`
	CategoryDistribution []CategoryShare `json:"categoryDistribution"`
}

// UncategorizedLabel names revenue whose product has no category
const UncategorizedLabel = "Uncategorized"
