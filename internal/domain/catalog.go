package domain

import (
	"time"

	"github.com/google/uuid"
)

// StoreRecord holds the columns shared by every store-scoped catalog row
type StoreRecord struct {
	ID        uuid.UUID `json:"id"`
	StoreID   uuid.UUID `json:"storeId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Record exposes the shared columns so generic catalog code can stamp them
func (r *StoreRecord) Record() *StoreRecord {
	return r
}

// Scoped is implemented by pointers to catalog entities
type Scoped interface {
	Record() *StoreRecord
}

type Billboard struct {
	StoreRecord
	Label    string `json:"label"`
	ImageURL string `json:"imageUrl"`
}

type Category struct {
	StoreRecord
	BillboardID    uuid.UUID `json:"billboardId"`
	BillboardLabel string    `json:"billboardLabel,omitempty"`
	Name           string    `json:"name"`
}

type Size struct {
	StoreRecord
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Color struct {
	StoreRecord
	Name  string `json:"name"`
	Value string `json:"value"`
}

// UoM is a unit of measure
type UoM struct {
	StoreRecord
	Name string `json:"uom"`
}
