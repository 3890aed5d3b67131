package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/events"
	"backoffice/internal/repository"
	"backoffice/internal/spreadsheet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// MinBarCodeLength applies to products created one at a time
	MinBarCodeLength = 13

	// SearchLimit caps the bulk editor's search results
	SearchLimit = 10
)

// ProductInput is a full product as submitted by a form, a bulk request or a spreadsheet row
type ProductInput struct {
	Name       string
	BarCode    string
	ItemDesc   string
	Price      decimal.Decimal
	CategoryID uuid.UUID
	SizeID     uuid.UUID
	ColorID    uuid.UUID
	UoMID      *uuid.UUID
	IsFeatured bool
	IsArchived bool
	Images     []string
	// Line is the sheet row of an imported product; zero for API input
	Line int
}

// row names an input in error messages: its sheet line when imported,
// otherwise its 1-based position in the request
func (in ProductInput) row(index int) int {
	if in.Line > 0 {
		return in.Line
	}
	return index + 1
}

// ProductPatch is a partial update; Images replaces the image set when non-nil
type ProductPatch struct {
	domain.ProductFieldUpdate
	Images []string
}

// ProductService implements catalog product management and the bulk operations
type ProductService interface {
	Create(ctx context.Context, storeID uuid.UUID, in ProductInput) (*domain.Product, error)
	Update(ctx context.Context, storeID, id uuid.UUID, patch ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, storeID, id uuid.UUID) error
	Get(ctx context.Context, storeID, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, storeID uuid.UUID, filter domain.ProductFilter) ([]*domain.Product, error)
	Storefront(ctx context.Context, storeID uuid.UUID, sort domain.StorefrontSort) ([]*domain.Product, error)
	Search(ctx context.Context, storeID uuid.UUID, query string) ([]*domain.Product, error)
	LookupBarcodes(ctx context.Context, storeID uuid.UUID, barcodes []string) ([]*domain.Product, error)
	BulkCreate(ctx context.Context, storeID uuid.UUID, inputs []ProductInput) (int, error)
	UpdatePrices(ctx context.Context, storeID uuid.UUID, updates []domain.PriceUpdate) (int, error)
	UpdateFields(ctx context.Context, storeID uuid.UUID, updates []domain.ProductFieldUpdate) (int, error)
	Deactivate(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) (int, error)
	Import(ctx context.Context, storeID uuid.UUID, format spreadsheet.Format, r io.Reader) (int, error)
	Export(ctx context.Context, storeID uuid.UUID, format spreadsheet.Format, w io.Writer) error
}

type productService struct {
	repo      repository.ProductRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(repo repository.ProductRepository, publisher events.Publisher, logger *zap.Logger) ProductService {
	return &productService{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// validateInput checks a full product. Single creates need a long barcode,
// bulk rows need a unit of measure.
func validateInput(in *ProductInput, bulk bool) error {
	in.Name = strings.TrimSpace(in.Name)
	in.BarCode = strings.TrimSpace(in.BarCode)
	in.ItemDesc = strings.TrimSpace(in.ItemDesc)

	switch {
	case in.Name == "":
		return invalid("name is required")
	case in.BarCode == "":
		return invalid("barCode is required")
	case !bulk && len(in.BarCode) < MinBarCodeLength:
		return invalid("barCode must be at least %d characters", MinBarCodeLength)
	case !bulk && in.ItemDesc == "":
		return invalid("itemDesc is required")
	case in.CategoryID == uuid.Nil || in.SizeID == uuid.Nil || in.ColorID == uuid.Nil:
		return invalid("categoryId, sizeId and colorId are required")
	case bulk && in.UoMID == nil:
		return invalid("uomId is required")
	case !bulk && in.Price.LessThan(decimal.NewFromInt(1)):
		return invalid("price must be at least 1")
	case in.Price.IsNegative():
		return invalid("price must not be negative")
	}
	return nil
}

func (s *productService) newProduct(storeID uuid.UUID, in ProductInput) *domain.Product {
	now := s.now()
	p := &domain.Product{
		ID:         uuid.New(),
		StoreID:    storeID,
		CategoryID: in.CategoryID,
		SizeID:     in.SizeID,
		ColorID:    in.ColorID,
		UoMID:      in.UoMID,
		Name:       in.Name,
		BarCode:    in.BarCode,
		ItemDesc:   in.ItemDesc,
		Price:      domain.RoundMoney(in.Price),
		IsFeatured: in.IsFeatured,
		IsArchived: in.IsArchived,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	p.Images = images(in.Images)
	return p
}

func images(urls []string) []domain.Image {
	out := make([]domain.Image, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, domain.Image{URL: u})
		}
	}
	return out
}

func (s *productService) Create(ctx context.Context, storeID uuid.UUID, in ProductInput) (*domain.Product, error) {
	if err := validateInput(&in, false); err != nil {
		return nil, err
	}

	product := s.newProduct(storeID, in)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, storeID, product.ID)
}

// Update applies the fields present in patch; present fields must not be blank
func (s *productService) Update(ctx context.Context, storeID, id uuid.UUID, patch ProductPatch) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, storeID, id)
	if err != nil {
		return nil, err
	}

	if err := applyFieldUpdate(product, &patch.ProductFieldUpdate); err != nil {
		return nil, err
	}
	if patch.Images != nil {
		product.Images = images(patch.Images)
	}
	product.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, product, patch.Images != nil); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, storeID, id)
}

func applyFieldUpdate(p *domain.Product, u *domain.ProductFieldUpdate) error {
	text := func(field string, v *string, dst *string) error {
		if v == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*v)
		if trimmed == "" {
			return invalid("%s must not be blank", field)
		}
		*dst = trimmed
		return nil
	}
	if err := text("name", u.Name, &p.Name); err != nil {
		return err
	}
	if err := text("barCode", u.BarCode, &p.BarCode); err != nil {
		return err
	}
	if err := text("itemDesc", u.ItemDesc, &p.ItemDesc); err != nil {
		return err
	}
	if u.Price != nil {
		if u.Price.IsNegative() {
			return invalid("price must not be negative")
		}
		p.Price = domain.RoundMoney(*u.Price)
	}
	if u.CategoryID != nil {
		p.CategoryID = *u.CategoryID
	}
	if u.SizeID != nil {
		p.SizeID = *u.SizeID
	}
	if u.ColorID != nil {
		p.ColorID = *u.ColorID
	}
	if u.UoMID != nil {
		p.UoMID = u.UoMID
	}
	if u.IsFeatured != nil {
		p.IsFeatured = *u.IsFeatured
	}
	if u.IsArchived != nil {
		p.IsArchived = *u.IsArchived
	}
	return nil
}

func (s *productService) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	return s.repo.Delete(ctx, storeID, id)
}

func (s *productService) Get(ctx context.Context, storeID, id uuid.UUID) (*domain.Product, error) {
	return s.repo.FindByID(ctx, storeID, id)
}

func (s *productService) List(ctx context.Context, storeID uuid.UUID, filter domain.ProductFilter) ([]*domain.Product, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	return s.repo.List(ctx, storeID, filter)
}

func (s *productService) Storefront(ctx context.Context, storeID uuid.UUID, sort domain.StorefrontSort) ([]*domain.Product, error) {
	return s.repo.ListStorefront(ctx, storeID, sort)
}

// Search finds active products by name substring or exact barcode
func (s *productService) Search(ctx context.Context, storeID uuid.UUID, query string) ([]*domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("search query is required")
	}
	return s.repo.Search(ctx, storeID, query, SearchLimit)
}

func (s *productService) LookupBarcodes(ctx context.Context, storeID uuid.UUID, barcodes []string) ([]*domain.Product, error) {
	cleaned := make([]string, 0, len(barcodes))
	for _, b := range barcodes {
		if b = strings.TrimSpace(b); b != "" {
			cleaned = append(cleaned, b)
		}
	}
	if len(cleaned) == 0 {
		return nil, invalid("barcodes must be a non-empty list")
	}
	return s.repo.FindByBarcodes(ctx, storeID, cleaned)
}

// BulkCreate inserts every row or none
func (s *productService) BulkCreate(ctx context.Context, storeID uuid.UUID, inputs []ProductInput) (int, error) {
	if len(inputs) == 0 {
		return 0, invalid("products must be a non-empty list")
	}

	products := make([]*domain.Product, 0, len(inputs))
	for i := range inputs {
		if err := validateInput(&inputs[i], true); err != nil {
			return 0, fmt.Errorf("row %d: %w", inputs[i].row(i), err)
		}
		products = append(products, s.newProduct(storeID, inputs[i]))
	}

	if err := s.repo.CreateMany(ctx, products); err != nil {
		var rowErr *repository.RowError
		if errors.As(err, &rowErr) && rowErr.Index < len(inputs) {
			return 0, fmt.Errorf("row %d: %w", inputs[rowErr.Index].row(rowErr.Index), rowErr.Err)
		}
		return 0, err
	}

	s.publishBulk(ctx, storeID, "create", len(products))
	return len(products), nil
}

func (s *productService) UpdatePrices(ctx context.Context, storeID uuid.UUID, updates []domain.PriceUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, invalid("products must be a non-empty list")
	}
	for i, u := range updates {
		if u.ID == uuid.Nil {
			return 0, invalid("product %d: id is required", i+1)
		}
		if u.Price.IsNegative() {
			return 0, invalid("product %d: price must be a number >= 0", i+1)
		}
		updates[i].Price = domain.RoundMoney(u.Price)
	}

	count, err := s.repo.UpdatePrices(ctx, storeID, updates)
	if err != nil {
		return 0, err
	}

	s.publishBulk(ctx, storeID, "price", count)
	return count, nil
}

func (s *productService) UpdateFields(ctx context.Context, storeID uuid.UUID, updates []domain.ProductFieldUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, invalid("products must be a non-empty list")
	}
	for i := range updates {
		u := &updates[i]
		if u.ID == uuid.Nil {
			return 0, invalid("product %d: id is required", i+1)
		}
		// validate present fields against a scratch product; the repository writes only those fields
		if err := applyFieldUpdate(&domain.Product{}, u); err != nil {
			return 0, fmt.Errorf("product %d: %w", i+1, err)
		}
		trim(u.Name)
		trim(u.BarCode)
		trim(u.ItemDesc)
	}

	count, err := s.repo.UpdateFields(ctx, storeID, updates)
	if err != nil {
		return 0, err
	}

	s.publishBulk(ctx, storeID, "fields", count)
	return count, nil
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func (s *productService) Deactivate(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, invalid("productIds must be a non-empty list")
	}

	count, err := s.repo.Archive(ctx, storeID, ids)
	if err != nil {
		return 0, err
	}

	s.publishBulk(ctx, storeID, "deactivate", count)
	return count, nil
}

// Import bulk-creates the rows of an uploaded sheet
func (s *productService) Import(ctx context.Context, storeID uuid.UUID, format spreadsheet.Format, r io.Reader) (int, error) {
	rows, err := spreadsheet.Read(format, r)
	if err != nil {
		// every read failure is a problem with the uploaded file
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	inputs := make([]ProductInput, 0, len(rows))
	for _, row := range rows {
		inputs = append(inputs, ProductInput{
			Line:       row.Line,
			Name:       row.Name,
			BarCode:    row.BarCode,
			ItemDesc:   row.ItemDesc,
			Price:      row.Price,
			CategoryID: row.CategoryID,
			SizeID:     row.SizeID,
			ColorID:    row.ColorID,
			UoMID:      row.UoMID,
			IsFeatured: row.IsFeatured,
			IsArchived: row.IsArchived,
		})
	}

	count, err := s.BulkCreate(ctx, storeID, inputs)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Products imported", zap.String("store_id", storeID.String()), zap.Int("count", count))
	return count, nil
}

// Export writes every product of the store, archived ones included
func (s *productService) Export(ctx context.Context, storeID uuid.UUID, format spreadsheet.Format, w io.Writer) error {
	active, err := s.repo.List(ctx, storeID, domain.ProductFilter{})
	if err != nil {
		return err
	}
	archived, err := s.repo.List(ctx, storeID, domain.ProductFilter{Archived: true})
	if err != nil {
		return err
	}
	return spreadsheet.Write(format, w, append(active, archived...))
}

func (s *productService) publishBulk(ctx context.Context, storeID uuid.UUID, operation string, count int) {
	event := events.ProductsEvent{StoreID: storeID, Operation: operation, Count: count, At: s.now().UTC()}
	if err := s.publisher.Publish(ctx, events.SubjectProductsBulkUpdate, event); err != nil {
		s.logger.Warn("Failed to publish products event", zap.String("operation", operation), zap.Error(err))
	}
}
