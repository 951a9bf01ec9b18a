// Package api exposes the dashboard's HTTP and websocket surface.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"kaspi-seller-dashboard/config"
	"kaspi-seller-dashboard/internal/auth"
	"kaspi-seller-dashboard/internal/dashboard"
	"kaspi-seller-dashboard/internal/database"
	"kaspi-seller-dashboard/internal/events"
	"kaspi-seller-dashboard/internal/ingest"
	"kaspi-seller-dashboard/internal/kaspi"
	"kaspi-seller-dashboard/internal/vault"
)

// RateLimiter provides simple in-memory rate limiting per key
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int           // max requests
	window   time.Duration // time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// Server represents the HTTP API server
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	repo        *database.Repository
	eventBus    *events.EventBus
	config      config.ServerConfig
	storeConfig config.StoreConfig

	authService  *auth.Service
	jwtManager   *auth.JWTManager
	vaultClient  *vault.Client
	dashboards   *dashboard.Service
	ingest       *ingest.Service
	kaspiFactory *kaspi.ClientFactory

	rateLimiter *RateLimiter
	hub         *WSHub
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	storeCfg config.StoreConfig,
	repo *database.Repository,
	eventBus *events.EventBus,
	authService *auth.Service,
	jwtManager *auth.JWTManager,
	vaultClient *vault.Client,
	dashboards *dashboard.Service,
	ingestService *ingest.Service,
	kaspiFactory *kaspi.ClientFactory,
) *Server {
	if cfg.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.AllowedOrigins == "" || cfg.AllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(cfg.AllowedOrigins, ",")
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:       router,
		repo:         repo,
		eventBus:     eventBus,
		config:       cfg,
		storeConfig:  storeCfg,
		authService:  authService,
		jwtManager:   jwtManager,
		vaultClient:  vaultClient,
		dashboards:   dashboards,
		ingest:       ingestService,
		kaspiFactory: kaspiFactory,
		rateLimiter:  NewRateLimiter(120, time.Minute),
	}

	server.setupRoutes()
	server.hub = InitWebSocket(eventBus)

	return server
}

// rateLimitMiddleware limits requests per merchant per endpoint
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := auth.UserIDFromContext(c) + ":" + c.FullPath()
		if !s.rateLimiter.Allow(key) {
			errorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	// Public auth endpoints
	authGroup := s.router.Group("/api/auth")
	{
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/refresh", s.handleRefresh)
	}

	// Everything else requires a valid token
	api := s.router.Group("/api")
	api.Use(auth.Middleware(s.jwtManager))
	api.Use(s.rateLimitMiddleware())
	{
		api.GET("/dashboard/report", s.handleDashboardReport)

		api.GET("/expenses", s.handleListExpenses)
		api.POST("/expenses", s.handleCreateExpense)
		api.DELETE("/expenses/:id", s.handleDeleteExpense)

		api.GET("/products", s.handleListProducts)
		api.PUT("/products/:sku/price", s.handleUpdatePrice)

		api.GET("/restock", s.handleListRestock)
		api.POST("/restock", s.handleCreateRestock)
		api.PATCH("/restock/:id/status", s.handleUpdateRestockStatus)
		api.DELETE("/restock/:id", s.handleDeleteRestock)

		api.POST("/sync/run", s.handleRunSync)
		api.POST("/credentials", s.handleStoreCredentials)
	}

	// Websocket authenticates via query token inside the handler
	s.router.GET("/ws", s.handleWebSocket)
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := s.repo.HealthCheck(ctx); err != nil {
		dbStatus = "unavailable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": dbStatus,
		"time":     time.Now().UTC(),
	})
}

// Start begins listening for HTTP requests. Blocks until the server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
	}

	log.Printf("[API] Server listening on %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
