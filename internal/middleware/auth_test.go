package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type secretValidator string

func (s secretValidator) ValidateToken(tokenString string) (*service.Claims, error) {
	return service.ParseAccessToken(string(s), tokenString)
}

type fakeSessions struct {
	alive map[string]bool
	err   error
}

func (f *fakeSessions) Touch(ctx context.Context, sessionID string) (bool, error) {
	return f.alive[sessionID], f.err
}

func signToken(t *testing.T, claims *service.Claims) string {
	t.Helper()
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tokenString
}

func claimsFor(userID uuid.UUID, role, storeID, sid string, expiresIn time.Duration) *service.Claims {
	return &service.Claims{
		UserID:    userID,
		Role:      role,
		StoreID:   storeID,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// authenticate runs req through AuthMiddleware and reports the status and
// the identity the downstream handler saw
func authenticate(v TokenValidator, sessions SessionToucher, req *http.Request) (int, *service.Claims) {
	var seen *service.Claims
	handler := AuthMiddleware(v, sessions, "session", zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = &service.Claims{}
		seen.UserID, _ = GetUserID(r.Context())
		seen.Role, _ = GetUserRole(r.Context())
		seen.SessionID, _ = GetSessionID(r.Context())
		if storeID, ok := GetStoreID(r.Context()); ok {
			seen.StoreID = storeID.String()
		}
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w.Code, seen
}

func bearer(token string) *http.Request {
	req := httptest.NewRequest("GET", "/api/stores", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthMiddlewareRejects(t *testing.T) {
	valid := signToken(t, claimsFor(uuid.New(), domain.RoleUser, "", "", time.Hour))
	noPrefix := httptest.NewRequest("GET", "/api/stores", nil)
	noPrefix.Header.Set("Authorization", valid)

	tests := map[string]struct {
		validator TokenValidator
		req       *http.Request
	}{
		"no credentials":    {secretValidator(testSecret), httptest.NewRequest("POST", "/api/stores", nil)},
		"expired":           {secretValidator(testSecret), bearer(signToken(t, claimsFor(uuid.New(), domain.RoleAcctg, "", "", -time.Hour)))},
		"garbage":           {secretValidator(testSecret), bearer("not.a.jwt")},
		"missing prefix":    {secretValidator(testSecret), noPrefix},
		"foreign signature": {secretValidator("other-secret"), bearer(valid)},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			status, seen := authenticate(tt.validator, nil, tt.req)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Nil(t, seen)
		})
	}
}

func TestProperty_ArbitraryBearerValuesAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("random strings never authenticate", prop.ForAll(
		func(token string) bool {
			status, seen := authenticate(secretValidator(testSecret), nil, bearer(token))
			return status == http.StatusUnauthorized && seen == nil
		},
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_HeaderAndCookieCarryTheSameIdentity(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("identity, store and session reach the handler", prop.ForAll(
		func(role string, useCookie bool) bool {
			userID, storeID := uuid.New(), uuid.New()
			token := signToken(t, claimsFor(userID, role, storeID.String(), "sid-1", time.Hour))

			req := bearer(token)
			if useCookie {
				req = httptest.NewRequest("GET", "/", nil)
				req.AddCookie(&http.Cookie{Name: "session", Value: token})
			}
			sessions := &fakeSessions{alive: map[string]bool{"sid-1": true}}
			status, seen := authenticate(secretValidator(testSecret), sessions, req)

			return status == http.StatusOK && seen != nil &&
				seen.UserID == userID && seen.Role == role &&
				seen.StoreID == storeID.String() && seen.SessionID == "sid-1"
		},
		gen.OneConstOf(domain.RoleAdministrator, domain.RoleAcctg, domain.RoleUser),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestIdleSessionIsRejected(t *testing.T) {
	sessions := &fakeSessions{alive: map[string]bool{}}
	token := signToken(t, claimsFor(uuid.New(), domain.RoleUser, "", "sid-gone", time.Hour))

	handler := AuthMiddleware(secretValidator(testSecret), sessions, "session", zap.NewNop())(okHandler())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, bearer(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "session expired")

	sessions.err = errors.New("redis down")
	status, _ := authenticate(secretValidator(testSecret), sessions, bearer(token))
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

// storeRouter mounts the authorization chain behind an authenticated context
func storeRouter(ctx context.Context, mw ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.With(mw...).Get("/api/{storeID}/things", okHandler().ServeHTTP)
	return r
}

func authenticated(role string, storeID *uuid.UUID) context.Context {
	ctx := context.WithValue(context.Background(), UserIDKey, uuid.New())
	ctx = context.WithValue(ctx, UserRoleKey, role)
	if storeID != nil {
		ctx = context.WithValue(ctx, StoreIDKey, *storeID)
	}
	return ctx
}

func TestRequireStoreAccess(t *testing.T) {
	storeID := uuid.New()
	other := uuid.New()

	tests := []struct {
		name   string
		ctx    context.Context
		path   string
		status int
	}{
		{"member", authenticated(domain.RoleUser, &storeID), "/api/" + storeID.String() + "/things", http.StatusOK},
		{"other store", authenticated(domain.RoleAdministrator, &other), "/api/" + storeID.String() + "/things", http.StatusForbidden},
		{"storefront customer", authenticated(domain.RoleUser, nil), "/api/" + storeID.String() + "/things", http.StatusForbidden},
		{"malformed id", authenticated(domain.RoleUser, &storeID), "/api/not-a-uuid/things", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			storeRouter(tt.ctx, RequireStoreAccess(zap.NewNop())).ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestProperty_RequirePermissionFollowsRoleTable(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests pass exactly when the role grants the permission", prop.ForAll(
		func(role string, permission string) bool {
			storeID := uuid.New()
			p := domain.Permission(permission)
			handler := storeRouter(authenticated(role, &storeID), RequirePermission(p, zap.NewNop()))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/"+storeID.String()+"/things", nil))

			if domain.HasPermission(role, p) {
				return w.Code == http.StatusOK
			}
			return w.Code == http.StatusForbidden
		},
		gen.OneConstOf(domain.RoleAdministrator, domain.RoleAcctg, domain.RoleUser, "Guest"),
		gen.OneConstOf(string(domain.PermissionCreate), string(domain.PermissionRead), string(domain.PermissionUpdate), string(domain.PermissionDelete)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRequireAdmin(t *testing.T) {
	storeID := uuid.New()
	for role, status := range map[string]int{
		domain.RoleAdministrator: http.StatusOK,
		domain.RoleAcctg:         http.StatusForbidden,
		domain.RoleUser:          http.StatusForbidden,
	} {
		w := httptest.NewRecorder()
		storeRouter(authenticated(role, &storeID), RequireAdmin(zap.NewNop())).
			ServeHTTP(w, httptest.NewRequest("GET", "/api/"+storeID.String()+"/things", nil))
		assert.Equal(t, status, w.Code, role)
	}
}
