package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundMoney rounds d to centavos
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatPHP renders d as Philippine peso currency, e.g. ₱1,234.50
func FormatPHP(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "₱" + b.String() + "." + frac
}

// Amounts leave the API as strings with exactly two places, e.g. "5.00".
// decimal.Decimal alone would drop trailing zeros.

func moneyJSON(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func nullMoneyJSON(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := moneyJSON(d.Decimal)
	return &s
}

func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		Price string `json:"price"`
	}{plain(p), moneyJSON(p.Price)})
}

func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		TotalAmountItemAndShipping *string `json:"totalAmountItemAndShipping"`
	}{plain(o), nullMoneyJSON(o.TotalAmountItemAndShipping)})
}

func (i OrderItem) MarshalJSON() ([]byte, error) {
	type plain OrderItem
	return json.Marshal(struct {
		plain
		TotalItemAmount *string `json:"totalItemAmount"`
		ProductPrice    string  `json:"productPrice"`
	}{plain(i), nullMoneyJSON(i.TotalItemAmount), moneyJSON(i.ProductPrice)})
}

func (r RevenuePoint) MarshalJSON() ([]byte, error) {
	type plain RevenuePoint
	return json.Marshal(struct {
		plain
		Total string `json:"total"`
	}{plain(r), moneyJSON(r.Total)})
}

func (c CategoryShare) MarshalJSON() ([]byte, error) {
	type plain CategoryShare
	return json.Marshal(struct {
		plain
		Value string `json:"value"`
	}{plain(c), moneyJSON(c.Value)})
}

func (d Dashboard) MarshalJSON() ([]byte, error) {
	type plain Dashboard
	return json.Marshal(struct {
		plain
		TotalRevenue string `json:"totalRevenue"`
	}{plain(d), moneyJSON(d.TotalRevenue)})
}

func (r AccountingReport) MarshalJSON() ([]byte, error) {
	type plain AccountingReport
	return json.Marshal(struct {
		plain
		TotalRevenue   string `json:"totalRevenue"`
		SalesThisMonth string `json:"salesThisMonth"`
	}{plain(r), moneyJSON(r.TotalRevenue), moneyJSON(r.SalesThisMonth)})
}
