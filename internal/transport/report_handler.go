package transport

import (
	"net/http"

	"backoffice/internal/domain"
	"backoffice/internal/middleware"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reports service.ReportService
	logger  *zap.Logger
}

func NewReportHandler(reports service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

func (h *ReportHandler) RegisterStoreRoutes(r chi.Router, g Guards) {
	read := g.Can(r, domain.PermissionRead)
	read.Get("/dashboard", h.Dashboard)
	read.Get("/reports/accounting", h.Accounting)
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	dashboard, err := h.reports.Dashboard(r.Context(), storeID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Dashboard")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, dashboard)
}

func (h *ReportHandler) Accounting(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	report, err := h.reports.Accounting(r.Context(), storeID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Accounting report")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, report)
}
