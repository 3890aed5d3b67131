// Package staging keeps per-user working sets of products for bulk edits.
// A worksheet collects products, the raw edits typed against them and the
// validation errors of those edits until it is submitted as one batch.
package staging

import (
	"errors"
	"fmt"
	"strings"

	"backoffice/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrAlreadyStaged = errors.New("product is already staged")
	ErrNotStaged     = errors.New("product is not staged")
	ErrUnknownField  = errors.New("field cannot be edited in this worksheet")
	ErrUnknownMode   = errors.New("unknown staging mode")
	ErrHasErrors     = errors.New("worksheet has validation errors")
	ErrNoChanges     = errors.New("no valid changes to save")
)

// Mode selects the bulk operation a worksheet submits to
type Mode string

const (
	ModePrice      Mode = "price"
	ModeFields     Mode = "fields"
	ModeDeactivate Mode = "deactivate"
)

// Editable field names
const (
	FieldName    = "name"
	FieldBarCode = "barCode"
	FieldPrice   = "price"
)

var editable = map[Mode][]string{
	ModePrice:      {FieldPrice},
	ModeFields:     {FieldName, FieldBarCode, FieldPrice},
	ModeDeactivate: nil,
}

func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if _, ok := editable[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

func (m Mode) allows(field string) bool {
	for _, f := range editable[m] {
		if f == field {
			return true
		}
	}
	return false
}

// Worksheet is the staged state of one bulk edit
type Worksheet struct {
	Mode     Mode                            `json:"mode"`
	Products []*domain.Product               `json:"products"`
	Changes  map[uuid.UUID]map[string]string `json:"changes"`
	Errors   map[uuid.UUID]map[string]string `json:"errors"`
}

func NewWorksheet(mode Mode) *Worksheet {
	return &Worksheet{
		Mode:     mode,
		Products: []*domain.Product{},
		Changes:  map[uuid.UUID]map[string]string{},
		Errors:   map[uuid.UUID]map[string]string{},
	}
}

func (w *Worksheet) index(id uuid.UUID) int {
	for i, p := range w.Products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Stage appends p to the worksheet
func (w *Worksheet) Stage(p *domain.Product) error {
	if w.index(p.ID) >= 0 {
		return ErrAlreadyStaged
	}
	w.Products = append(w.Products, p)
	return nil
}

// Unstage drops the product together with its changes and errors
func (w *Worksheet) Unstage(id uuid.UUID) error {
	i := w.index(id)
	if i < 0 {
		return ErrNotStaged
	}
	w.Products = append(w.Products[:i], w.Products[i+1:]...)
	delete(w.Changes, id)
	delete(w.Errors, id)
	return nil
}

// Edit records value for field and revalidates it. A value that fails
// validation is still kept so the user can correct it.
func (w *Worksheet) Edit(id uuid.UUID, field, value string) error {
	if w.index(id) < 0 {
		return ErrNotStaged
	}
	if !w.Mode.allows(field) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	if w.Changes[id] == nil {
		w.Changes[id] = map[string]string{}
	}
	w.Changes[id][field] = value

	msg := validate(field, value)
	if msg == "" {
		delete(w.Errors[id], field)
		if len(w.Errors[id]) == 0 {
			delete(w.Errors, id)
		}
		return nil
	}
	if w.Errors[id] == nil {
		w.Errors[id] = map[string]string{}
	}
	w.Errors[id][field] = msg
	return nil
}

func validate(field, value string) string {
	switch field {
	case FieldName:
		if strings.TrimSpace(value) == "" {
			return "Name cannot be empty."
		}
	case FieldPrice:
		if value == "" {
			return ""
		}
		if _, ok := positivePrice(value); !ok {
			return "Must be a positive number."
		}
	}
	return ""
}

func positivePrice(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return domain.RoundMoney(d), true
}

func (w *Worksheet) HasErrors() bool {
	return len(w.Errors) > 0
}

// PriceUpdates returns the staged products with a usable new price
func (w *Worksheet) PriceUpdates() []domain.PriceUpdate {
	updates := []domain.PriceUpdate{}
	for _, p := range w.Products {
		if price, ok := positivePrice(w.Changes[p.ID][FieldPrice]); ok {
			updates = append(updates, domain.PriceUpdate{ID: p.ID, Price: price})
		}
	}
	return updates
}

// FieldUpdates returns one update per staged product that has at least one
// usable change; blank text and unparsable prices are skipped
func (w *Worksheet) FieldUpdates() []domain.ProductFieldUpdate {
	updates := []domain.ProductFieldUpdate{}
	for _, p := range w.Products {
		changes := w.Changes[p.ID]
		u := domain.ProductFieldUpdate{ID: p.ID}
		if name := strings.TrimSpace(changes[FieldName]); name != "" {
			u.Name = &name
		}
		if barCode := strings.TrimSpace(changes[FieldBarCode]); barCode != "" {
			u.BarCode = &barCode
		}
		if price, ok := positivePrice(changes[FieldPrice]); ok {
			u.Price = &price
		}
		if !u.Empty() {
			updates = append(updates, u)
		}
	}
	return updates
}

func (w *Worksheet) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(w.Products))
	for _, p := range w.Products {
		ids = append(ids, p.ID)
	}
	return ids
}
