package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"backoffice/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRoleKey  contextKey = "user_role"
	StoreIDKey   contextKey = "store_id"
	SessionIDKey contextKey = "session_id"
)

// TokenValidator verifies an access token and returns its claims
type TokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

// SessionToucher extends a session's idle timeout, reporting false when it already lapsed
type SessionToucher interface {
	Touch(ctx context.Context, sessionID string) (bool, error)
}

// AuthMiddleware validates the access token from the Authorization header or,
// failing that, the session cookie. Every authenticated request slides the
// session's idle timeout.
func AuthMiddleware(tokens TokenValidator, sessions SessionToucher, cookieName string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, msg := extractToken(r, cookieName)
			if tokenString == "" {
				logger.Debug("Request not authenticated", zap.String("reason", msg))
				RespondWithError(w, http.StatusUnauthorized, msg)
				return
			}

			claims, err := tokens.ValidateToken(tokenString)
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}
			if claims.UserID == uuid.Nil || claims.Role == "" {
				logger.Error("Token is missing identity claims")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			if sessions != nil && claims.SessionID != "" {
				alive, err := sessions.Touch(r.Context(), claims.SessionID)
				if err != nil {
					logger.Error("Failed to touch session", zap.String("session_id", claims.SessionID), zap.Error(err))
					RespondWithError(w, http.StatusServiceUnavailable, "session store unavailable")
					return
				}
				if !alive {
					logger.Debug("Session idled out", zap.String("user_id", claims.UserID.String()))
					RespondWithError(w, http.StatusUnauthorized, "session expired")
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
			ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID)
			if storeID, err := uuid.Parse(claims.StoreID); err == nil {
				ctx = context.WithValue(ctx, StoreIDKey, storeID)
			}

			logger.Debug("User authenticated",
				zap.String("user_id", claims.UserID.String()),
				zap.String("role", claims.Role),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken returns the bearer token, falling back to the session cookie.
// When no token is found the second value says why.
func extractToken(r *http.Request, cookieName string) (string, string) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", "invalid authorization header format"
		}
		return parts[1], ""
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value, ""
		}
	}
	return "", "missing authorization header"
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}

// GetStoreID extracts the store the user belongs to; storefront customers have none
func GetStoreID(ctx context.Context) (uuid.UUID, bool) {
	storeID, ok := ctx.Value(StoreIDKey).(uuid.UUID)
	return storeID, ok
}

func GetSessionID(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(SessionIDKey).(string)
	return sid, ok
}
