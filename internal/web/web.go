// Package web renders the server-side HTML pages of the back office from
// embedded templates.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"backoffice/internal/domain"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// DashboardPage is the data of the store landing page
type DashboardPage struct {
	Store     *domain.Store
	Dashboard *domain.Dashboard
}

// OrderPage is the data of the printable order
type OrderPage struct {
	Store     *domain.Store
	Order     *domain.Order
	PrintedAt time.Time
}

type Renderer struct {
	dashboard *template.Template
	order     *template.Template
}

var funcs = template.FuncMap{
	"php": domain.FormatPHP,
	"phpOrZero": func(d decimal.NullDecimal) string {
		if !d.Valid {
			return domain.FormatPHP(decimal.Zero)
		}
		return domain.FormatPHP(d.Decimal)
	},
	"date": func(t time.Time) string { return t.Format("January 2, 2006") },
	"yesno": func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	},
}

func NewRenderer() (*Renderer, error) {
	dashboard, err := parse("dashboard.html")
	if err != nil {
		return nil, err
	}
	order, err := parse("order.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{dashboard: dashboard, order: order}, nil
}

func parse(page string) (*template.Template, error) {
	t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
	}
	return t, nil
}

func (r *Renderer) Dashboard(w io.Writer, page DashboardPage) error {
	return r.dashboard.Execute(w, page)
}

func (r *Renderer) Order(w io.Writer, page OrderPage) error {
	return r.order.Execute(w, page)
}
