package transport

import (
	"context"
	"net/http"

	"backoffice/internal/domain"
	"backoffice/internal/middleware"
	"backoffice/internal/staging"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StagingService is the worksheet workflow behind the bulk edit pages
type StagingService interface {
	Get(ctx context.Context, key staging.Key) (*staging.Worksheet, error)
	Add(ctx context.Context, key staging.Key, productID uuid.UUID) (*staging.Worksheet, error)
	Remove(ctx context.Context, key staging.Key, productID uuid.UUID) (*staging.Worksheet, error)
	Edit(ctx context.Context, key staging.Key, productID uuid.UUID, field, value string) (*staging.Worksheet, error)
	Submit(ctx context.Context, key staging.Key) (int, error)
	Discard(ctx context.Context, key staging.Key) error
}

type StageRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

type EditCellRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

type StagingHandler struct {
	staging StagingService
	logger  *zap.Logger
}

func NewStagingHandler(staging StagingService, logger *zap.Logger) *StagingHandler {
	return &StagingHandler{staging: staging, logger: logger}
}

func (h *StagingHandler) RegisterStoreRoutes(r chi.Router, g Guards) {
	r.Route("/staging/{mode}", func(r chi.Router) {
		r = g.Can(r, domain.PermissionUpdate)
		r.Get("/", h.Get)
		r.Delete("/", h.Discard)
		r.Post("/items", h.Add)
		r.Patch("/items/{productID}", h.Edit)
		r.Delete("/items/{productID}", h.Remove)
		r.Post("/submit", h.Submit)
	})
}

// key identifies the worksheet of the current user for the store and mode in the path
func (h *StagingHandler) key(w http.ResponseWriter, r *http.Request) (staging.Key, bool) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return staging.Key{}, false
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return staging.Key{}, false
	}
	mode, err := staging.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
		return staging.Key{}, false
	}
	return staging.Key{UserID: userID, StoreID: storeID, Mode: mode}, true
}

func (h *StagingHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	sheet, err := h.staging.Get(r.Context(), key)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Worksheet lookup")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, sheet)
}

func (h *StagingHandler) Add(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	var req StageRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	sheet, err := h.staging.Add(r.Context(), key, uuid.MustParse(req.ProductID))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Staging product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, sheet)
}

func (h *StagingHandler) Edit(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	var req EditCellRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	sheet, err := h.staging.Edit(r.Context(), key, productID, req.Field, req.Value)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Worksheet edit")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, sheet)
}

func (h *StagingHandler) Remove(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	sheet, err := h.staging.Remove(r.Context(), key, productID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Unstaging product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, sheet)
}

func (h *StagingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	count, err := h.staging.Submit(r.Context(), key)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Worksheet submit")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, countResponse{Count: count})
}

func (h *StagingHandler) Discard(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	if err := h.staging.Discard(r.Context(), key); err != nil {
		respondWithServiceError(w, h.logger, err, "Worksheet discard")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, messageResponse{Message: "worksheet discarded"})
}
