package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/database"
	"backoffice/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound      = fmt.Errorf("product %w", ErrNotFound)
	ErrProductAlreadyExists = fmt.Errorf("product with this barcode %w", ErrAlreadyExists)
	ErrProductInUse         = fmt.Errorf("product is %w by orders", ErrInUse)
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	CreateMany(ctx context.Context, products []*domain.Product) error
	Update(ctx context.Context, product *domain.Product, replaceImages bool) error
	Delete(ctx context.Context, storeID, id uuid.UUID) error
	FindByID(ctx context.Context, storeID, id uuid.UUID) (*domain.Product, error)
	FindByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]*domain.Product, error)
	List(ctx context.Context, storeID uuid.UUID, filter domain.ProductFilter) ([]*domain.Product, error)
	Search(ctx context.Context, storeID uuid.UUID, query string, limit int) ([]*domain.Product, error)
	FindByBarcodes(ctx context.Context, storeID uuid.UUID, barcodes []string) ([]*domain.Product, error)
	ListStorefront(ctx context.Context, storeID uuid.UUID, sort domain.StorefrontSort) ([]*domain.Product, error)
	UpdatePrices(ctx context.Context, storeID uuid.UUID, updates []domain.PriceUpdate) (int, error)
	UpdateFields(ctx context.Context, storeID uuid.UUID, updates []domain.ProductFieldUpdate) (int, error)
	Archive(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) (int, error)
	Count(ctx context.Context, storeID uuid.UUID, activeOnly bool) (int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const productSelect = `
	SELECT p.id, p.store_id, p.category_id, p.size_id, p.color_id, p.uom_id,
	       p.name, p.bar_code, p.item_desc, p.price, p.is_featured, p.is_archived,
	       p.created_at, p.updated_at,
	       c.name, s.name, co.name, co.value, COALESCE(u.name, '')
	FROM products p
	JOIN categories c ON c.id = p.category_id
	JOIN sizes s ON s.id = p.size_id
	JOIN colors co ON co.id = p.color_id
	LEFT JOIN uoms u ON u.id = p.uom_id
`

func scanProduct(row interface{ Scan(...interface{}) error }) (*domain.Product, error) {
	p := &domain.Product{Images: []domain.Image{}}
	var uomID uuid.NullUUID
	err := row.Scan(
		&p.ID,
		&p.StoreID,
		&p.CategoryID,
		&p.SizeID,
		&p.ColorID,
		&uomID,
		&p.Name,
		&p.BarCode,
		&p.ItemDesc,
		&p.Price,
		&p.IsFeatured,
		&p.IsArchived,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.CategoryName,
		&p.SizeName,
		&p.ColorName,
		&p.ColorValue,
		&p.UoMName,
	)
	if err != nil {
		return nil, err
	}
	if uomID.Valid {
		p.UoMID = &uomID.UUID
	}
	return p, nil
}

func insertProduct(ctx context.Context, ex execer, p *domain.Product) error {
	query := `
		INSERT INTO products (id, store_id, category_id, size_id, color_id, uom_id, name, bar_code,
		                      item_desc, price, is_featured, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := ex.ExecContext(ctx, query,
		p.ID, p.StoreID, p.CategoryID, p.SizeID, p.ColorID, p.UoMID, p.Name, p.BarCode,
		p.ItemDesc, p.Price, p.IsFeatured, p.IsArchived, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return mapWriteError(err, ErrProductAlreadyExists, "create product")
	}
	return nil
}

func insertImages(ctx context.Context, ex execer, p *domain.Product) error {
	for i := range p.Images {
		img := &p.Images[i]
		if img.ID == uuid.Nil {
			img.ID = uuid.New()
		}
		img.ProductID = p.ID
		if img.CreatedAt.IsZero() {
			img.CreatedAt = p.UpdatedAt
			img.UpdatedAt = p.UpdatedAt
		}

		_, err := ex.ExecContext(ctx,
			`INSERT INTO images (id, product_id, url, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			img.ID, img.ProductID, img.URL, img.CreatedAt, img.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create image: %w", err)
		}
	}
	return nil
}

// Create inserts a product and its images in one transaction
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := insertProduct(ctx, tx, product); err != nil {
			return err
		}
		return insertImages(ctx, tx, product)
	})
}

// CreateMany inserts all products in one transaction; any failing row rolls back
// the batch and is reported as a *RowError
func (r *productRepository) CreateMany(ctx context.Context, products []*domain.Product) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for i, p := range products {
			if err := insertProduct(ctx, tx, p); err != nil {
				return &RowError{Index: i, Err: err}
			}
			if err := insertImages(ctx, tx, p); err != nil {
				return &RowError{Index: i, Err: err}
			}
		}
		return nil
	})
}

// Update writes every column of the product. When replaceImages is set the
// stored images are replaced by product.Images.
func (r *productRepository) Update(ctx context.Context, product *domain.Product, replaceImages bool) error {
	query := `
		UPDATE products
		SET category_id = $3, size_id = $4, color_id = $5, uom_id = $6, name = $7, bar_code = $8,
		    item_desc = $9, price = $10, is_featured = $11, is_archived = $12, updated_at = $13
		WHERE id = $1 AND store_id = $2
	`

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			product.ID, product.StoreID, product.CategoryID, product.SizeID, product.ColorID, product.UoMID,
			product.Name, product.BarCode, product.ItemDesc, product.Price, product.IsFeatured,
			product.IsArchived, product.UpdatedAt)
		if err != nil {
			return mapWriteError(err, ErrProductAlreadyExists, "update product")
		}
		if err := expectOneRow(result, ErrProductNotFound); err != nil {
			return err
		}

		if !replaceImages {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM images WHERE product_id = $1`, product.ID); err != nil {
			return fmt.Errorf("failed to delete images: %w", err)
		}
		for i := range product.Images {
			product.Images[i].ID = uuid.Nil
			product.Images[i].CreatedAt = time.Time{}
		}
		return insertImages(ctx, tx, product)
	})
}

// Delete removes a product; its images cascade
func (r *productRepository) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return mapDeleteError(err, ErrProductInUse, "delete product")
	}
	return expectOneRow(result, ErrProductNotFound)
}

// FindByID retrieves a product of the store with its references and images
func (r *productRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.id = $1 AND p.store_id = $2`, id, storeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	if err := r.loadImages(ctx, []*domain.Product{product}); err != nil {
		return nil, err
	}
	return product, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]*domain.Product, error) {
	return r.query(ctx, productSelect+`
		WHERE p.store_id = $1 AND p.id = ANY($2::text[]::uuid[])
		ORDER BY p.name ASC`, storeID, uuidStrings(ids))
}

// List retrieves the products of a store narrowed by filter, newest first
func (r *productRepository) List(ctx context.Context, storeID uuid.UUID, filter domain.ProductFilter) ([]*domain.Product, error) {
	where := []string{"p.store_id = $1", "p.is_archived = $2"}
	args := []interface{}{storeID, filter.Archived}

	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, likePattern(q))
		where = append(where, fmt.Sprintf("(p.name ILIKE $%d OR p.bar_code ILIKE $%d)", len(args), len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		where = append(where, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		where = append(where, fmt.Sprintf("p.is_featured = $%d", len(args)))
	}

	query := productSelect + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY p.created_at DESC`
	return r.query(ctx, query, args...)
}

// Search returns at most limit active products whose name contains query or
// whose barcode equals it
func (r *productRepository) Search(ctx context.Context, storeID uuid.UUID, query string, limit int) ([]*domain.Product, error) {
	return r.query(ctx, productSelect+`
		WHERE p.store_id = $1 AND p.is_archived = FALSE
		  AND (p.name ILIKE $2 OR p.bar_code = $3)
		ORDER BY p.name ASC
		LIMIT $4`, storeID, likePattern(query), query, limit)
}

func (r *productRepository) FindByBarcodes(ctx context.Context, storeID uuid.UUID, barcodes []string) ([]*domain.Product, error) {
	return r.query(ctx, productSelect+`
		WHERE p.store_id = $1 AND p.bar_code = ANY($2::text[])
		ORDER BY p.bar_code ASC`, storeID, barcodes)
}

// ListStorefront lists the featured, active products in the requested order
func (r *productRepository) ListStorefront(ctx context.Context, storeID uuid.UUID, sort domain.StorefrontSort) ([]*domain.Product, error) {
	orderBy := "p.created_at DESC"
	switch sort {
	case domain.SortPriceLowToHigh:
		orderBy = "p.price ASC, p.created_at DESC"
	case domain.SortPriceHighToLow:
		orderBy = "p.price DESC, p.created_at DESC"
	case domain.SortNewest:
		orderBy = "p.created_at DESC"
	}

	return r.query(ctx, productSelect+`
		WHERE p.store_id = $1 AND p.is_featured = TRUE AND p.is_archived = FALSE
		ORDER BY `+orderBy, storeID)
}

// UpdatePrices sets the price of every listed product in one transaction. A
// product missing from the store rolls back the whole batch.
func (r *productRepository) UpdatePrices(ctx context.Context, storeID uuid.UUID, updates []domain.PriceUpdate) (int, error) {
	count := 0
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, u := range updates {
			result, err := tx.ExecContext(ctx,
				`UPDATE products SET price = $3, updated_at = NOW() WHERE id = $1 AND store_id = $2`,
				u.ID, storeID, u.Price)
			if err != nil {
				return fmt.Errorf("failed to update price of %s: %w", u.ID, err)
			}
			if err := expectOneRow(result, ErrProductNotFound); err != nil {
				return fmt.Errorf("%s: %w", u.ID, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateFields writes only the provided fields of every listed product in one
// transaction. A product missing from the store rolls back the whole batch.
func (r *productRepository) UpdateFields(ctx context.Context, storeID uuid.UUID, updates []domain.ProductFieldUpdate) (int, error) {
	count := 0
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, u := range updates {
			sets, args := fieldAssignments(u, storeID)
			query := `UPDATE products SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 AND store_id = $2`

			result, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return mapWriteError(err, ErrProductAlreadyExists, "update product "+u.ID.String())
			}
			if err := expectOneRow(result, ErrProductNotFound); err != nil {
				return fmt.Errorf("%s: %w", u.ID, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// fieldAssignments builds the SET list of a partial update; $1 and $2 are the id and store id
func fieldAssignments(u domain.ProductFieldUpdate, storeID uuid.UUID) ([]string, []interface{}) {
	args := []interface{}{u.ID, storeID}
	sets := []string{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.BarCode != nil {
		add("bar_code", *u.BarCode)
	}
	if u.ItemDesc != nil {
		add("item_desc", *u.ItemDesc)
	}
	if u.Price != nil {
		add("price", *u.Price)
	}
	if u.CategoryID != nil {
		add("category_id", *u.CategoryID)
	}
	if u.SizeID != nil {
		add("size_id", *u.SizeID)
	}
	if u.ColorID != nil {
		add("color_id", *u.ColorID)
	}
	if u.UoMID != nil {
		add("uom_id", *u.UoMID)
	}
	if u.IsFeatured != nil {
		add("is_featured", *u.IsFeatured)
	}
	if u.IsArchived != nil {
		add("is_archived", *u.IsArchived)
	}

	sets = append(sets, "updated_at = NOW()")
	return sets, args
}

// Archive deactivates the listed products that belong to the store and
// returns how many rows changed
func (r *productRepository) Archive(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products SET is_archived = TRUE, updated_at = NOW()
		WHERE store_id = $1 AND id = ANY($2::text[]::uuid[])`, storeID, uuidStrings(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to archive products: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

func (r *productRepository) Count(ctx context.Context, storeID uuid.UUID, activeOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM products WHERE store_id = $1`
	if activeOnly {
		query += ` AND is_archived = FALSE`
	}

	var total int
	if err := r.db.QueryRowContext(ctx, query, storeID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

func (r *productRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if err := r.loadImages(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// loadImages attaches images to products with a single query
func (r *productRepository) loadImages(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Product, len(products))
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, url, created_at, updated_at
		FROM images
		WHERE product_id = ANY($1::text[]::uuid[])
		ORDER BY created_at ASC`, uuidStrings(ids))
	if err != nil {
		return fmt.Errorf("failed to load images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.CreatedAt, &img.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan image: %w", err)
		}
		if p, ok := byID[img.ProductID]; ok {
			p.Images = append(p.Images, img)
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating images: %w", err)
	}
	return nil
}

// likePattern wraps q for a substring ILIKE match, escaping wildcards
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
