package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// CORSMiddleware configures CORS settings. Credentials are allowed so the
// session cookie reaches the API from the admin and storefront origins.
func CORSMiddleware(allowedOrigins []string, isDevelopment bool) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}
	// a wildcard origin cannot carry credentials, so development reflects any origin instead
	if isDevelopment {
		options.AllowedOrigins = nil
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
	}
	return cors.Handler(options)
}

// DefaultMiddlewareStack returns the middleware every route shares
func DefaultMiddlewareStack(logger *zap.Logger, requestTimeout time.Duration) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		LoggingMiddleware(logger),
		ErrorHandlingMiddleware(logger),
		middleware.Timeout(requestTimeout),
		middleware.Compress(5, "application/json", "text/html", "text/csv"),
	}
}
