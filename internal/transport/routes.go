package transport

import (
	"net/http"

	"backoffice/internal/domain"
	"backoffice/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Guards bundles the middleware handlers put in front of protected routes
type Guards struct {
	// Auth validates the access token and slides the session
	Auth func(http.Handler) http.Handler
	// RateLimit throttles credential endpoints; nil disables it
	RateLimit func(http.Handler) http.Handler
	Logger    *zap.Logger
}

// Member requires an authenticated member of the {storeID} store
func (g Guards) Member(r chi.Router) chi.Router {
	return r.With(g.Auth, middleware.RequireStoreAccess(g.Logger))
}

// Can requires a store member whose role grants p
func (g Guards) Can(r chi.Router, p domain.Permission) chi.Router {
	return r.With(g.Auth, middleware.RequireStoreAccess(g.Logger), middleware.RequirePermission(p, g.Logger))
}

// Admin requires a store member with the Administrator role
func (g Guards) Admin(r chi.Router) chi.Router {
	return r.With(g.Auth, middleware.RequireStoreAccess(g.Logger), middleware.RequireAdmin(g.Logger))
}

// Limited applies the rate limiter when configured
func (g Guards) Limited(r chi.Router) chi.Router {
	if g.RateLimit == nil {
		return r
	}
	return r.With(g.RateLimit)
}

// StoreRoutes is implemented by handlers mounted below /api/{storeID}
type StoreRoutes interface {
	RegisterStoreRoutes(r chi.Router, g Guards)
}
