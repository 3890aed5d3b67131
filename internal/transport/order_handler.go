package transport

import (
	"context"
	"net/http"

	"backoffice/internal/domain"
	"backoffice/internal/middleware"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProfileSource resolves the signed-in user, used to find the customer's own orders
type ProfileSource interface {
	Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

type CheckoutItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type CheckoutRequest struct {
	ClientName    string                `json:"clientName" validate:"required"`
	ClientEmail   string                `json:"clientEmail" validate:"required,email"`
	CompanyName   string                `json:"companyName"`
	PONumber      string                `json:"poNumber"`
	Address       string                `json:"address"`
	ContactNumber string                `json:"contactNumber"`
	AttachedPOURL string                `json:"attachedPoUrl" validate:"omitempty,url"`
	ShippingFee   decimal.Decimal       `json:"shippingFee"`
	Items         []CheckoutItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderPatchRequest updates the flags and remarks of an order; absent fields are kept
type OrderPatchRequest struct {
	IsPaid           *bool   `json:"isPaid"`
	AcctgRemarks     *string `json:"acctgRemarks"`
	AcctgAttachedURL *string `json:"acctgAttachedUrl"`
	OrderStatus      *bool   `json:"orderStatus"`
	StoreRemarks     *string `json:"storeRemarks"`
	StoreAttachedURL *string `json:"storeAttachedUrl"`
}

type OrderHandler struct {
	orders   service.OrderService
	profiles ProfileSource
	logger   *zap.Logger
}

func NewOrderHandler(orders service.OrderService, profiles ProfileSource, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, profiles: profiles, logger: logger}
}

func (h *OrderHandler) RegisterStoreRoutes(r chi.Router, g Guards) {
	r.With(g.Auth).Post("/checkout", h.Checkout)
	r.With(g.Auth).Get("/my-orders", h.MyOrders)

	r.Route("/orders", func(r chi.Router) {
		read := g.Can(r, domain.PermissionRead)
		read.Get("/", h.List)
		read.Get("/pending", h.Pending)
		read.Get("/{orderID}", h.Get)
		// any member may record delivery; the service gates payment fields by role
		g.Member(r).Patch("/{orderID}", h.Patch)
	})
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.List(r.Context(), storeID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Order listing")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Pending(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	pending, err := h.orders.Pending(r.Context(), storeID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Pending order listing")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, pending)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}
	order, err := h.orders.Get(r.Context(), storeID, id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Order lookup")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// Patch applies the update with the caller's role; only settling roles may
// change payment fields
func (h *OrderHandler) Patch(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}
	var req OrderPatchRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	role, _ := middleware.GetUserRole(r.Context())

	order, err := h.orders.Patch(r.Context(), storeID, id, role, domain.OrderPatch{
		IsPaid:           req.IsPaid,
		AcctgRemarks:     req.AcctgRemarks,
		AcctgAttachedURL: req.AcctgAttachedURL,
		OrderStatus:      req.OrderStatus,
		StoreRemarks:     req.StoreRemarks,
		StoreAttachedURL: req.StoreAttachedURL,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Order update")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	lines := make([]domain.CheckoutLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, domain.CheckoutLine{ProductID: uuid.MustParse(item.ProductID), Quantity: item.Quantity})
	}

	order, err := h.orders.Checkout(r.Context(), storeID, service.CheckoutInput{
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		CompanyName:   req.CompanyName,
		PONumber:      req.PONumber,
		Address:       req.Address,
		ContactNumber: req.ContactNumber,
		AttachedPOURL: req.AttachedPOURL,
		ShippingFee:   req.ShippingFee,
		Lines:         lines,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Checkout")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// MyOrders lists the store's orders placed under the signed-in user's email
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	storeID, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.profiles.Profile(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Profile lookup")
		return
	}

	orders, err := h.orders.MyOrders(r.Context(), storeID, user.Email)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Order listing")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}
