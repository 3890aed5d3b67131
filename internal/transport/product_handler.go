package transport

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/internal/spreadsheet"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxUploadBytes caps spreadsheet uploads
const MaxUploadBytes = 10 << 20

type ImageRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// ProductRequest creates one product; the service enforces price and barcode rules
type ProductRequest struct {
	Name       string          `json:"name" validate:"required"`
	BarCode    string          `json:"barCode" validate:"required"`
	ItemDesc   string          `json:"itemDesc"`
	Price      decimal.Decimal `json:"price"`
	CategoryID string          `json:"categoryId" validate:"required,uuid"`
	SizeID     string          `json:"sizeId" validate:"required,uuid"`
	ColorID    string          `json:"colorId" validate:"required,uuid"`
	UoMID      *string         `json:"uomId" validate:"omitempty,uuid"`
	IsFeatured bool            `json:"isFeatured"`
	IsArchived bool            `json:"isArchived"`
	Images     []ImageRequest  `json:"images" validate:"dive"`
}

func (req *ProductRequest) input() service.ProductInput {
	uomID, _ := optionalUUID(req.UoMID)
	return service.ProductInput{
		Name:       req.Name,
		BarCode:    req.BarCode,
		ItemDesc:   req.ItemDesc,
		Price:      req.Price,
		CategoryID: uuid.MustParse(req.CategoryID),
		SizeID:     uuid.MustParse(req.SizeID),
		ColorID:    uuid.MustParse(req.ColorID),
		UoMID:      uomID,
		IsFeatured: req.IsFeatured,
		IsArchived: req.IsArchived,
		Images:     imageURLs(req.Images),
	}
}

func imageURLs(images []ImageRequest) []string {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.URL)
	}
	return urls
}

type BulkCreateRequest struct {
	Products []ProductRequest `json:"products" validate:"required,min=1,dive"`
}

// FieldUpdateRequest is a partial product update; absent fields are kept
type FieldUpdateRequest struct {
	ID         string           `json:"id" validate:"required,uuid"`
	Name       *string          `json:"name"`
	BarCode    *string          `json:"barCode"`
	ItemDesc   *string          `json:"itemDesc"`
	Price      *decimal.Decimal `json:"price"`
	CategoryID *string          `json:"categoryId" validate:"omitempty,uuid"`
	SizeID     *string          `json:"sizeId" validate:"omitempty,uuid"`
	ColorID    *string          `json:"colorId" validate:"omitempty,uuid"`
	UoMID      *string          `json:"uomId" validate:"omitempty,uuid"`
	IsFeatured *bool            `json:"isFeatured"`
	IsArchived *bool            `json:"isArchived"`
}

func (req *FieldUpdateRequest) update() domain.ProductFieldUpdate {
	u := domain.ProductFieldUpdate{
		ID:         uuid.MustParse(req.ID),
		Name:       req.Name,
		BarCode:    req.BarCode,
		ItemDesc:   req.ItemDesc,
		Price:      req.Price,
		IsFeatured: req.IsFeatured,
		IsArchived: req.IsArchived,
	}
	u.CategoryID, _ = optionalUUID(req.CategoryID)
	u.SizeID, _ = optionalUUID(req.SizeID)
	u.ColorID, _ = optionalUUID(req.ColorID)
	u.UoMID, _ = optionalUUID(req.UoMID)
	return u
}

// PatchProductRequest updates one product; images replace the current set when present
type PatchProductRequest struct {
	Name       *string          `json:"name"`
	BarCode    *string          `json:"barCode"`
	ItemDesc   *string          `json:"itemDesc"`
	Price      *decimal.Decimal `json:"price"`
	CategoryID *string          `json:"categoryId" validate:"omitempty,uuid"`
	SizeID     *string          `json:"sizeId" validate:"omitempty,uuid"`
	ColorID    *string          `json:"colorId" validate:"omitempty,uuid"`
	UoMID      *string          `json:"uomId" validate:"omitempty,uuid"`
	IsFeatured *bool            `json:"isFeatured"`
	IsArchived *bool            `json:"isArchived"`
	Images     *[]ImageRequest  `json:"images" validate:"omitempty,dive"`
}

type BulkFieldUpdateRequest struct {
	Products []FieldUpdateRequest `json:"products" validate:"required,min=1,dive"`
}

type PriceUpdateRequest struct {
	ID    string           `json:"id" validate:"required,uuid"`
	Price *decimal.Decimal `json:"price" validate:"required"`
}

type BulkPriceUpdateRequest struct {
	Products []PriceUpdateRequest `json:"products" validate:"required,min=1,dive"`
}

type DeactivateRequest struct {
	ProductIDs []string `json:"productIds" validate:"required,min=1,dive,uuid"`
}

type BarcodeLookupRequest struct {
	Barcodes []string `json:"barcodes" validate:"required,min=1"`
}

// ProductHandler serves product management, bulk operations, spreadsheets and the storefront listing
type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
	now      func() time.Time
}

func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger, now: time.Now}
}

func (h *ProductHandler) RegisterStoreRoutes(r chi.Router, g Guards) {
	r.Get("/storefront/products", h.Storefront)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)

		read := g.Can(r, domain.PermissionRead)
		read.Get("/search", h.Search)
		read.Post("/bulk-lookup", h.LookupBarcodes)
		read.Get("/export", h.Export)

		create := g.Can(r, domain.PermissionCreate)
		create.Post("/", h.Create)
		create.Post("/bulk", h.BulkCreate)
		create.Post("/import", h.Import)

		update := g.Can(r, domain.PermissionUpdate)
		update.Patch("/bulk-update", h.UpdatePrices)
		update.Patch("/bulk-product-update", h.UpdateFields)
		update.Patch("/deactivate", h.Deactivate)
		update.Patch("/{productID}", h.Update)

		g.Can(r, domain.PermissionDelete).Delete("/{productID}", h.Delete)
		r.Get("/{productID}", h.Get)
	})
}

// List returns the store's products; archived=true lists archived ones instead
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := domain.ProductFilter{Query: q.Get("q")}
	if raw := q.Get("categoryId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid categoryId")
			return
		}
		filter.CategoryID = &id
	}
	if raw := q.Get("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid archived flag")
			return
		}
		filter.Archived = archived
	}
	if raw := q.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid featured flag")
			return
		}
		filter.Featured = &featured
	}

	products, err := h.products.List(r.Context(), storeID, filter)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Product listing")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Storefront(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	products, err := h.products.Storefront(r.Context(), storeID, domain.ParseStorefrontSort(r.URL.Query().Get("sort")))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Storefront listing")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	product, err := h.products.Get(r.Context(), storeID, id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Product lookup")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	products, err := h.products.Search(r.Context(), storeID, r.URL.Query().Get("q"))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Product search")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) LookupBarcodes(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	var req BarcodeLookupRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	products, err := h.products.LookupBarcodes(r.Context(), storeID, req.Barcodes)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Barcode lookup")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	var req ProductRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.products.Create(r.Context(), storeID, req.input())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Product creation")
		return
	}
	h.logger.Info("Product created",
		zap.String("store_id", storeID.String()),
		zap.String("product_id", product.ID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	var req PatchProductRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	fields := FieldUpdateRequest{
		ID:         id.String(),
		Name:       req.Name,
		BarCode:    req.BarCode,
		ItemDesc:   req.ItemDesc,
		Price:      req.Price,
		CategoryID: req.CategoryID,
		SizeID:     req.SizeID,
		ColorID:    req.ColorID,
		UoMID:      req.UoMID,
		IsFeatured: req.IsFeatured,
		IsArchived: req.IsArchived,
	}
	patch := service.ProductPatch{ProductFieldUpdate: fields.update()}
	if req.Images != nil {
		patch.Images = imageURLs(*req.Images)
	}

	product, err := h.products.Update(r.Context(), storeID, id, patch)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Product update")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	if err := h.products.Delete(r.Context(), storeID, id); err != nil {
		respondWithServiceError(w, h.logger, err, "Product deletion")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "product deleted"})
}

func (h *ProductHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	var req BulkCreateRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	inputs := make([]service.ProductInput, 0, len(req.Products))
	for i := range req.Products {
		inputs = append(inputs, req.Products[i].input())
	}

	count, err := h.products.BulkCreate(r.Context(), storeID, inputs)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Bulk product creation")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, countResponse{Count: count})
}

func (h *ProductHandler) UpdatePrices(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	var req BulkPriceUpdateRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	updates := make([]domain.PriceUpdate, 0, len(req.Products))
	for _, p := range req.Products {
		updates = append(updates, domain.PriceUpdate{ID: uuid.MustParse(p.ID), Price: *p.Price})
	}

	count, err := h.products.UpdatePrices(r.Context(), storeID, updates)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Bulk price update")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, countResponse{Count: count})
}

func (h *ProductHandler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	var req BulkFieldUpdateRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	updates := make([]domain.ProductFieldUpdate, 0, len(req.Products))
	for i := range req.Products {
		updates = append(updates, req.Products[i].update())
	}

	count, err := h.products.UpdateFields(r.Context(), storeID, updates)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Bulk product update")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, countResponse{Count: count})
}

func (h *ProductHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	var req DeactivateRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	ids, err := parseUUIDs(req.ProductIDs)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	count, err := h.products.Deactivate(r.Context(), storeID, ids)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Product deactivation")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, countResponse{Count: count})
}

// Export streams every product of the store as xlsx (default) or csv
func (h *ProductHandler) Export(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	format, err := spreadsheet.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Product export")
		return
	}

	// buffered so a failure can still be answered with an error envelope
	var buf bytes.Buffer
	if err := h.products.Export(r.Context(), storeID, format, &buf); err != nil {
		respondWithServiceError(w, h.logger, err, "Product export")
		return
	}

	filename := fmt.Sprintf("products-%s.%s", h.now().Format("2006-01-02"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("Failed to write export", zap.Error(err))
	}
}

// Import bulk-creates the rows of the uploaded multipart "file"
func (h *ProductHandler) Import(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	format, err := spreadsheet.FormatFromFilename(header.Filename)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Product import")
		return
	}

	count, err := h.products.Import(r.Context(), storeID, format, file)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Product import")
		return
	}
	h.logger.Info("Spreadsheet imported",
		zap.String("store_id", storeID.String()),
		zap.String("file", header.Filename),
		zap.Int("count", count),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, countResponse{Count: count})
}
