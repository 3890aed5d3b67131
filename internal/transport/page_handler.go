package transport

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/internal/web"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoreLookup resolves the store shown in page headers
type StoreLookup interface {
	GetStore(ctx context.Context, id uuid.UUID) (*domain.Store, error)
}

// PageHandler serves the HTML dashboard and printable orders
type PageHandler struct {
	renderer *web.Renderer
	stores   StoreLookup
	reports  service.ReportService
	orders   service.OrderService
	logger   *zap.Logger
	now      func() time.Time
}

func NewPageHandler(renderer *web.Renderer, stores StoreLookup, reports service.ReportService, orders service.OrderService, logger *zap.Logger) *PageHandler {
	return &PageHandler{renderer: renderer, stores: stores, reports: reports, orders: orders, logger: logger, now: time.Now}
}

func (h *PageHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.Route("/{storeID}", func(r chi.Router) {
		read := g.Can(r, domain.PermissionRead)
		read.Get("/", h.Dashboard)
		read.Get("/orders/{orderID}/print", h.PrintOrder)
	})
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	store, err := h.stores.GetStore(r.Context(), storeID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Store lookup")
		return
	}
	dashboard, err := h.reports.Dashboard(r.Context(), storeID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Dashboard")
		return
	}

	h.render(w, func(buf *bytes.Buffer) error {
		return h.renderer.Dashboard(buf, web.DashboardPage{Store: store, Dashboard: dashboard})
	})
}

func (h *PageHandler) PrintOrder(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}
	store, err := h.stores.GetStore(r.Context(), storeID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Store lookup")
		return
	}
	order, err := h.orders.Get(r.Context(), storeID, id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Order lookup")
		return
	}

	h.render(w, func(buf *bytes.Buffer) error {
		return h.renderer.Order(buf, web.OrderPage{Store: store, Order: order, PrintedAt: h.now()})
	})
}

// render executes into a buffer so template failures still produce an error response
func (h *PageHandler) render(w http.ResponseWriter, execute func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := execute(&buf); err != nil {
		h.logger.Error("Failed to render page", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("Failed to write page", zap.Error(err))
	}
}
