package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/api"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/config"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database/repository"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database/service"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/handler"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/logger"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/middleware"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/server"
)

func main() {
	// 1. Config
	cfg := config.LoadConfig()

	// 2. Logger
	appLogger := logger.New(cfg)

	if err := cfg.Validate(); err != nil {
		appLogger.Error("❌ Invalid configuration", "error", err)
		os.Exit(1)
	}

	appLogger.Info("🚀 [Go] Starting Gadget Inventory API...",
		"environment", cfg.AppEnv,
		"port", cfg.ApiServicePort,
	)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 3. Connect to Database
	db, err := database.ConnectDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Error("❌ Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	// 4. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	gadgetRepo := repository.NewGadgetRepository(db)

	// 5. Initialize Services
	authService := service.NewAuthService(userRepo, cfg, appLogger)
	gadgetService := service.NewGadgetService(gadgetRepo, appLogger)

	// 6. Initialize Rate Limiter
	var rateLimiter middleware.RateLimiter
	redisClient, err := database.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Warn("⚠️ Failed to connect to Redis, using no-op rate limiter", "error", err)
		rateLimiter = middleware.NewNoOpRateLimiter(appLogger)
	} else {
		rateLimiter = middleware.NewRateLimiter(redisClient, cfg, appLogger)
	}
	defer rateLimiter.Close()

	// 7. Initialize Handlers & Middleware
	authHandler := handler.NewAuthHandler(authService, appLogger)
	gadgetHandler := handler.NewGadgetHandler(gadgetService, appLogger)
	authMiddleware := middleware.NewAuthMiddleware(authService, appLogger)

	r := api.SetupRouter(authHandler, gadgetHandler, authMiddleware, rateLimiter, appLogger)

	// 8. Start HTTP Server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ApiServicePort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTimeout := time.Duration(cfg.ShutdownTimeout) * time.Second
	if err := server.Run(ctx, srv, shutdownTimeout, appLogger); err != nil {
		appLogger.Error("❌ HTTP Server failed to start", "error", err)
		os.Exit(1)
	}
}
