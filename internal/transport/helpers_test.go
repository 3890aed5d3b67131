package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backoffice/internal/middleware"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "transport-test-secret"

type secretValidator string

func (s secretValidator) ValidateToken(tokenString string) (*service.Claims, error) {
	return service.ParseAccessToken(string(s), tokenString)
}

func testGuards() Guards {
	logger := zap.NewNop()
	return Guards{
		Auth:   middleware.AuthMiddleware(secretValidator(testSecret), nil, "session", logger),
		Logger: logger,
	}
}

// caller is a signed-in user of one store
type caller struct {
	userID  uuid.UUID
	storeID uuid.UUID
	token   string
}

func signIn(t *testing.T, role string, storeID uuid.UUID) caller {
	t.Helper()
	userID := uuid.New()
	claims := &service.Claims{
		UserID:    userID,
		Role:      role,
		StoreID:   storeID.String(),
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return caller{userID: userID, storeID: storeID, token: token}
}

// storeRouter mounts handlers below /api/{storeID} the way the server does
func storeRouter(handlers ...StoreRoutes) http.Handler {
	g := testGuards()
	r := chi.NewRouter()
	r.Route("/api/{storeID}", func(r chi.Router) {
		for _, h := range handlers {
			h.RegisterStoreRoutes(r, g)
		}
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorDetail {
	t.Helper()
	var resp middleware.ErrorResponse
	decode(t, w, &resp)
	return resp.Error
}
