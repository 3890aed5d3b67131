package transport

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StoreRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateUserRequest registers a staff member; roleId or role names the role
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	RoleID   string `json:"roleId" validate:"omitempty,uuid"`
	Role     string `json:"role"`
}

// StoreHandler serves store settings, store members and the role list
type StoreHandler struct {
	stores service.StoreService
	logger *zap.Logger
}

func NewStoreHandler(stores service.StoreService, logger *zap.Logger) *StoreHandler {
	return &StoreHandler{stores: stores, logger: logger}
}

func (h *StoreHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.With(g.Auth).Get("/api/roles", h.ListRoles)

	r.Route("/api/stores", func(r chi.Router) {
		admin := r.With(g.Auth, middleware.RequireAdmin(g.Logger))
		admin.Get("/", h.ListStores)
		admin.Post("/", h.CreateStore)

		r.Route("/{storeID}", func(r chi.Router) {
			g.Member(r).Get("/", h.GetStore)
			g.Admin(r).Patch("/", h.RenameStore)
		})
	})
}

func (h *StoreHandler) RegisterStoreRoutes(r chi.Router, g Guards) {
	r.Route("/users", func(r chi.Router) {
		admin := g.Admin(r)
		admin.Get("/", h.ListUsers)
		admin.Post("/", h.CreateUser)
	})
}

func (h *StoreHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.stores.ListStores(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Store listing")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stores)
}

func (h *StoreHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	store, err := h.stores.CreateStore(r.Context(), req.Name)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Store creation")
		return
	}
	h.logger.Info("Store created", zap.String("store_id", store.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, store)
}

func (h *StoreHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	id, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	store, err := h.stores.GetStore(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Store lookup")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, store)
}

func (h *StoreHandler) RenameStore(w http.ResponseWriter, r *http.Request) {
	id, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	var req StoreRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	store, err := h.stores.RenameStore(r.Context(), id, req.Name)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Store rename")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, store)
}

func (h *StoreHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	users, err := h.stores.ListUsers(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "User listing")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, users)
}

func (h *StoreHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := routeStoreID(w, r)
	if !ok {
		return
	}
	var req CreateUserRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	in := service.NewUserInput{Name: req.Name, Email: req.Email, Password: req.Password, RoleName: req.Role}
	if req.RoleID != "" {
		roleID := uuid.MustParse(req.RoleID)
		in.RoleID = &roleID
	}

	user, err := h.stores.CreateUser(r.Context(), id, in)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "User creation")
		return
	}
	h.logger.Info("Store user created",
		zap.String("store_id", id.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.RoleName),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, user)
}

func (h *StoreHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.stores.ListRoles(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "Role listing")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, roles)
}
