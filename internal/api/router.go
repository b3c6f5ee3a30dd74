package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/handler"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/middleware"
)

func SetupRouter(
	authHandler *handler.AuthHandler,
	gadgetHandler *handler.GadgetHandler,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter middleware.RateLimiter,
	logger *slog.Logger,
) *gin.Engine {
	r := gin.New()
	r.SetTrustedProxies(nil)

	r.Use(
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(),
		middleware.RateLimit(rateLimiter, logger),
	)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
	})

	// Public routes
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to the IMF Gadget API")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/docs", serveDocs)

	// Auth routes (Public)
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/signin", authHandler.Signin)
		authGroup.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)
	}

	// Protected gadget routes
	gadgets := r.Group("/gadgets")
	gadgets.Use(authMiddleware.RequireAuth())
	{
		gadgets.GET("", gadgetHandler.List)
		gadgets.POST("", gadgetHandler.Create)
		gadgets.PATCH("/:id", gadgetHandler.Update)
		gadgets.DELETE("/:id", gadgetHandler.Decommission)
		gadgets.POST("/:id/self-destruct", gadgetHandler.SelfDestruct)
	}

	return r
}
