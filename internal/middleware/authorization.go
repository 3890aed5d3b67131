package middleware

import (
	"net/http"

	"backoffice/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoreIDParam is the route parameter holding the store id
const StoreIDParam = "storeID"

// RequireAdmin middleware ensures the user has the Administrator role
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole([]string{domain.RoleAdministrator}, logger)
}

// RequireRole middleware ensures the user has one of the specified roles
func RequireRole(allowedRoles []string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok {
				logger.Warn("Role not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			allowed := false
			for _, allowedRole := range allowedRoles {
				if role == allowedRole {
					allowed = true
					break
				}
			}

			if !allowed {
				logger.Warn("User role not authorized",
					zap.String("role", role),
					zap.Strings("allowed_roles", allowedRoles),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission middleware checks the role permission table
func RequirePermission(p domain.Permission, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := GetUserRole(r.Context())
			if !domain.HasPermission(role, p) {
				logger.Warn("Permission denied",
					zap.String("role", role),
					zap.String("permission", string(p)),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStoreAccess rejects users whose store differs from the {storeID} route parameter
func RequireStoreAccess(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			routeStore, err := uuid.Parse(chi.URLParam(r, StoreIDParam))
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, "invalid store id")
				return
			}

			userStore, ok := GetStoreID(r.Context())
			if !ok || userStore != routeStore {
				userID, _ := GetUserID(r.Context())
				logger.Warn("Store access denied",
					zap.String("user_id", userID.String()),
					zap.String("store_id", routeStore.String()),
				)
				RespondWithError(w, http.StatusForbidden, "no access to this store")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
