package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/recipebook/backend/internal/database"
	"github.com/pageza/recipebook/backend/internal/middleware"
	"github.com/pageza/recipebook/backend/internal/service"
)

// Dependencies are the collaborators the HTTP surface is built from.
// The rate limiters are optional.
type Dependencies struct {
	DB                  *gorm.DB
	Auth                middleware.TokenValidator
	Recipes             service.IRecipeService
	Logger              *slog.Logger
	MaxUploadBytes      int64
	CreationLimiter     *middleware.RateLimiter
	ModificationLimiter *middleware.RateLimiter
}

// HealthHandler reports database reachability
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a health handler over db
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := database.HealthCheck(ctx, h.db); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "ok",
	})
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	// Health check endpoint (no auth required)
	router.GET("/health", NewHealthHandler(deps.DB).HealthCheck)

	recipeHandler := NewRecipeHandler(deps.Recipes, deps.Logger, deps.MaxUploadBytes, deps.CreationLimiter, deps.ModificationLimiter)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(deps.Auth))
	recipeHandler.RegisterRoutes(api)
}
