package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a sellable item of a store
type Product struct {
	ID         uuid.UUID       `json:"id"`
	StoreID    uuid.UUID       `json:"storeId"`
	CategoryID uuid.UUID       `json:"categoryId"`
	SizeID     uuid.UUID       `json:"sizeId"`
	ColorID    uuid.UUID       `json:"colorId"`
	UoMID      *uuid.UUID      `json:"uomId"`
	Name       string          `json:"name"`
	BarCode    string          `json:"barCode"`
	ItemDesc   string          `json:"itemDesc"`
	Price      decimal.Decimal `json:"price"`
	IsFeatured bool            `json:"isFeatured"`
	IsArchived bool            `json:"isArchived"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`

	// Populated by read queries
	CategoryName string  `json:"category,omitempty"`
	SizeName     string  `json:"size,omitempty"`
	ColorName    string  `json:"color,omitempty"`
	ColorValue   string  `json:"colorValue,omitempty"`
	UoMName      string  `json:"uom,omitempty"`
	Images       []Image `json:"images"`
}

// ImageURLs returns the URLs of the product images in order
func (p *Product) ImageURLs() []string {
	urls := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		urls = append(urls, img.URL)
	}
	return urls
}

// Image is a product picture hosted elsewhere
type Image struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProductFilter narrows a product listing
type ProductFilter struct {
	Query      string
	CategoryID *uuid.UUID
	Archived   bool
	Featured   *bool
}

// PriceUpdate sets the price of one product
type PriceUpdate struct {
	ID    uuid.UUID       `json:"id"`
	Price decimal.Decimal `json:"price"`
}

// ProductFieldUpdate carries a partial product update; nil fields are left untouched
type ProductFieldUpdate struct {
	ID         uuid.UUID        `json:"id"`
	Name       *string          `json:"name,omitempty"`
	BarCode    *string          `json:"barCode,omitempty"`
	ItemDesc   *string          `json:"itemDesc,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	CategoryID *uuid.UUID       `json:"categoryId,omitempty"`
	SizeID     *uuid.UUID       `json:"sizeId,omitempty"`
	ColorID    *uuid.UUID       `json:"colorId,omitempty"`
	UoMID      *uuid.UUID       `json:"uomId,omitempty"`
	IsFeatured *bool            `json:"isFeatured,omitempty"`
	IsArchived *bool            `json:"isArchived,omitempty"`
}

// Empty reports whether the update carries no field besides the id
func (u *ProductFieldUpdate) Empty() bool {
	return u.Name == nil && u.BarCode == nil && u.ItemDesc == nil && u.Price == nil &&
		u.CategoryID == nil && u.SizeID == nil && u.ColorID == nil && u.UoMID == nil &&
		u.IsFeatured == nil && u.IsArchived == nil
}

// StorefrontSort orders the storefront product listing
type StorefrontSort string

const (
	SortFeatured       StorefrontSort = "featured"
	SortPriceLowToHigh StorefrontSort = "priceLowToHigh"
	SortPriceHighToLow StorefrontSort = "priceHighToLow"
	SortNewest         StorefrontSort = "newest"
)

// ParseStorefrontSort maps a query value to a sort, defaulting to featured
func ParseStorefrontSort(s string) StorefrontSort {
	switch StorefrontSort(s) {
	case SortPriceLowToHigh, SortPriceHighToLow, SortNewest:
		return StorefrontSort(s)
	default:
		return SortFeatured
	}
}
