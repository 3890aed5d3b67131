package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/domain"
	"backoffice/internal/events"
	"backoffice/internal/mail"
	custommiddleware "backoffice/internal/middleware"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/staging"
	"backoffice/internal/transport"
	"backoffice/internal/web"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RequestTimeout bounds every request, spreadsheet uploads included
const RequestTimeout = 60 * time.Second

// Deps are the connections the server takes ownership of
type Deps struct {
	DB        database.Service
	Redis     *redis.Client
	Publisher events.Publisher
	Mailer    mail.Sender
}

// Close releases every connection that was opened; nil members are skipped
func (d Deps) Close() error {
	var errs []error
	if d.Publisher != nil {
		d.Publisher.Close()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis client: %w", err))
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) (*Server, error) {
	router, err := NewRouter(cfg, logger, deps)
	if err != nil {
		return nil, err
	}

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: RequestTimeout + 10*time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}, nil
}

// NewRouter wires repositories, services and handlers onto a chi router
func NewRouter(cfg *config.Config, logger *zap.Logger, deps Deps) (http.Handler, error) {
	db := deps.DB.DB()

	// Initialize repositories
	users := repository.NewUserRepository(db)
	roles := repository.NewRoleRepository(db)
	stores := repository.NewStoreRepository(db)
	products := repository.NewProductRepository(db)
	orders := repository.NewOrderRepository(db)

	// Initialize services
	sessions := service.NewSessionStore(deps.Redis, cfg.Session.IdleTimeout)
	authService := service.NewAuthService(service.AuthRepositories{
		Users:         users,
		Roles:         roles,
		RefreshTokens: repository.NewRefreshTokenRepository(db),
		Verification:  repository.NewVerificationTokenRepository(db),
		PasswordReset: repository.NewPasswordResetTokenRepository(db),
	}, sessions, deps.Mailer, service.AuthConfig{
		JWTSecret:     cfg.JWT.Secret,
		AccessExpiry:  time.Duration(cfg.JWT.AccessExpiry) * time.Minute,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiry) * 24 * time.Hour,
		BaseURL:       cfg.Server.BaseURL,
	}, logger)
	storeService := service.NewStoreService(stores, users, roles)
	productService := service.NewProductService(products, deps.Publisher, logger)
	orderService := service.NewOrderService(orders, products, deps.Publisher, logger)
	reportService := service.NewReportService(orders, products)
	stagingManager := staging.NewManager(staging.NewRedisStore(deps.Redis, staging.DefaultTTL), productService, productService, logger)

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	guards := transport.Guards{
		Auth: custommiddleware.AuthMiddleware(authService, sessions, cfg.Session.CookieName, logger),
		RateLimit: custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.AuthRequests,
			Window:            cfg.RateLimit.AuthWindow,
			KeyPrefix:         "ratelimit:auth",
		}, logger),
		Logger: logger,
	}

	storeHandler := transport.NewStoreHandler(storeService, logger)
	storeRoutes := []transport.StoreRoutes{
		storeHandler,
		transport.NewCatalogHandler[*domain.Billboard, transport.BillboardRequest](
			"billboards", "Billboard", service.NewCatalogService(repository.NewBillboardRepository(db)), logger),
		transport.NewCatalogHandler[*domain.Category, transport.CategoryRequest](
			"categories", "Category", service.NewCatalogService(repository.NewCategoryRepository(db)), logger),
		transport.NewCatalogHandler[*domain.Size, transport.SizeRequest](
			"sizes", "Size", service.NewCatalogService(repository.NewSizeRepository(db)), logger),
		transport.NewCatalogHandler[*domain.Color, transport.ColorRequest](
			"colors", "Color", service.NewCatalogService(repository.NewColorRepository(db)), logger),
		transport.NewCatalogHandler[*domain.UoM, transport.UoMRequest](
			"uoms", "Unit of measure", service.NewCatalogService(repository.NewUoMRepository(db)), logger),
		transport.NewProductHandler(productService, logger),
		transport.NewStagingHandler(stagingManager, logger),
		transport.NewOrderHandler(orderService, authService, logger),
		transport.NewReportHandler(reportService, logger),
	}

	router := chi.NewRouter()
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, !cfg.IsProduction()))
	router.Use(custommiddleware.DefaultMiddlewareStack(logger, RequestTimeout)...)

	router.Get("/health", healthHandler(deps))

	transport.NewAuthHandler(authService, transport.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.Secure,
		MaxAge: time.Duration(cfg.JWT.RefreshExpiry) * 24 * time.Hour,
	}, logger).RegisterRoutes(router, guards)
	storeHandler.RegisterRoutes(router, guards)

	// every store scoped API shares one mount so chi sees a single /api/{storeID} subtree
	router.Route("/api/{storeID}", func(r chi.Router) {
		for _, h := range storeRoutes {
			h.RegisterStoreRoutes(r, guards)
		}
	})

	transport.NewPageHandler(renderer, storeService, reportService, orderService, logger).RegisterRoutes(router, guards)

	return router, nil
}

type healthResponse struct {
	Status   string            `json:"status"`
	Database map[string]string `json:"database"`
	Redis    string            `json:"redis"`
}

// healthHandler reports 503 when the database or Redis is unreachable
func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Database: deps.DB.Health(), Redis: "up"}

		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			resp.Redis = "down"
		}

		status := http.StatusOK
		if resp.Database["status"] != "up" || resp.Redis != "up" {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	}
}

// Close releases the connections handed to the server
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if err := s.deps.Close(); err != nil {
		s.logger.Error("Failed to close server resources", zap.Error(err))
	}

	s.logger.Sync()
	return nil
}
