package transport

import (
	"net/http"

	"backoffice/internal/domain"
	"backoffice/internal/middleware"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// entityRequest is a validated request body that converts into a catalog entity
type entityRequest[T domain.Scoped] interface {
	entity() T
}

type BillboardRequest struct {
	Label    string `json:"label" validate:"required"`
	ImageURL string `json:"imageUrl" validate:"required,url"`
}

func (r BillboardRequest) entity() *domain.Billboard {
	return &domain.Billboard{Label: r.Label, ImageURL: r.ImageURL}
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	BillboardID string `json:"billboardId" validate:"required,uuid"`
}

func (r CategoryRequest) entity() *domain.Category {
	return &domain.Category{Name: r.Name, BillboardID: uuid.MustParse(r.BillboardID)}
}

type SizeRequest struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
}

func (r SizeRequest) entity() *domain.Size {
	return &domain.Size{Name: r.Name, Value: r.Value}
}

type ColorRequest struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
}

func (r ColorRequest) entity() *domain.Color {
	return &domain.Color{Name: r.Name, Value: r.Value}
}

type UoMRequest struct {
	Name string `json:"uom" validate:"required"`
}

func (r UoMRequest) entity() *domain.UoM {
	return &domain.UoM{Name: r.Name}
}

// CatalogHandler serves list, read, create, update and delete for one catalog
// entity below /api/{storeID}/<path>. Reads are public; writes need the
// matching permission.
type CatalogHandler[T domain.Scoped] struct {
	path    string
	name    string
	service *service.CatalogService[T]
	decode  func(w http.ResponseWriter, r *http.Request) (T, error)
	logger  *zap.Logger
}

// NewCatalogHandler builds a handler whose request bodies decode as R
func NewCatalogHandler[T domain.Scoped, R entityRequest[T]](path, name string, svc *service.CatalogService[T], logger *zap.Logger) *CatalogHandler[T] {
	return &CatalogHandler[T]{
		path:    path,
		name:    name,
		service: svc,
		decode: func(w http.ResponseWriter, r *http.Request) (T, error) {
			var req R
			if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
				var zero T
				return zero, err
			}
			return req.entity(), nil
		},
		logger: logger,
	}
}

func (h *CatalogHandler[T]) RegisterStoreRoutes(r chi.Router, g Guards) {
	r.Route("/"+h.path, func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		g.Can(r, domain.PermissionCreate).Post("/", h.Create)
		g.Can(r, domain.PermissionUpdate).Patch("/{id}", h.Update)
		g.Can(r, domain.PermissionDelete).Delete("/{id}", h.Delete)
	})
}

func (h *CatalogHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	rows, err := h.service.List(r.Context(), storeID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, h.name+" listing")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, rows)
}

func (h *CatalogHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	row, err := h.service.Get(r.Context(), storeID, id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, h.name+" lookup")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, row)
}

func (h *CatalogHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	entity, err := h.decode(w, r)
	if err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	row, err := h.service.Create(r.Context(), storeID, entity)
	if err != nil {
		respondWithServiceError(w, h.logger, err, h.name+" creation")
		return
	}
	h.logger.Info(h.name+" created",
		zap.String("store_id", storeID.String()),
		zap.String("id", row.Record().ID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, row)
}

func (h *CatalogHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entity, err := h.decode(w, r)
	if err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	row, err := h.service.Update(r.Context(), storeID, id, entity)
	if err != nil {
		respondWithServiceError(w, h.logger, err, h.name+" update")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, row)
}

func (h *CatalogHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), storeID, id); err != nil {
		respondWithServiceError(w, h.logger, err, h.name+" deletion")
		return
	}
	h.logger.Info(h.name+" deleted", zap.String("store_id", storeID.String()), zap.String("id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, messageResponse{Message: h.name + " deleted"})
}
