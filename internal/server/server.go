package server

import (
	"fmt"
	"net/http"
	"time"

	"teslo-shop/internal/auth"
	"teslo-shop/internal/config"
	custommiddleware "teslo-shop/internal/middleware"
	"teslo-shop/internal/repository"
	"teslo-shop/internal/service"
	"teslo-shop/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *pgxpool.Pool
	redis  *redis.Client
}

// NewServer wires repositories, services, the access guard and handlers
// onto a chi router. The redis client is optional; without it the auth
// routes run unthrottled.
func NewServer(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.RequestLogger(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env != "production"))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)

	// Token issuer holds the process-wide signing secret, injected once.
	issuer := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Services
	authService := service.NewAuthService(userRepo, issuer, logger)

	// Handlers
	authHandler := transport.NewAuthHandler(authService, logger)
	productHandler := transport.NewProductHandler(productRepo, logger)

	// Access guard
	authenticate := custommiddleware.Authenticate(issuer, userRepo, logger)

	if redisClient != nil {
		rateLimit := custommiddleware.RateLimit(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: 30,
			Window:            time.Minute,
			KeyPrefix:         "rate_limit:auth",
		}, logger)

		router.Group(func(r chi.Router) {
			r.Use(rateLimit)
			authHandler.RegisterRoutes(r, authenticate)
		})
	} else {
		authHandler.RegisterRoutes(router, authenticate)
	}

	productHandler.RegisterRoutes(router, authenticate)

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		s.db.Close()
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
