package api

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/pageza/recipebook/backend/config"
	"github.com/pageza/recipebook/backend/internal/middleware"
	"github.com/pageza/recipebook/backend/internal/service"
	"github.com/pageza/recipebook/backend/internal/types"
)

// multipartMemory is how much of a multipart body is kept in memory before spilling to temp files
const multipartMemory = 8 << 20

// RecipeHandler serves the owner-scoped recipe endpoints
type RecipeHandler struct {
	recipes             service.IRecipeService
	logger              *slog.Logger
	maxUploadBytes      int64
	creationLimiter     *middleware.RateLimiter
	modificationLimiter *middleware.RateLimiter
}

// NewRecipeHandler creates a handler. Limiters may be nil.
func NewRecipeHandler(recipes service.IRecipeService, logger *slog.Logger, maxUploadBytes int64, creationLimiter, modificationLimiter *middleware.RateLimiter) *RecipeHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = config.DefaultMaxUploadBytes
	}
	return &RecipeHandler{
		recipes:             recipes,
		logger:              logger.With("component", "api"),
		maxUploadBytes:      maxUploadBytes,
		creationLimiter:     creationLimiter,
		modificationLimiter: modificationLimiter,
	}
}

// RegisterRoutes mounts /recipes on an already authenticated group
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.POST("", limited(h.creationLimiter, false, h.CreateRecipe)...)
		recipes.PUT("/:id", limited(h.modificationLimiter, true, h.UpdateRecipe)...)
		recipes.DELETE("/:id", limited(h.modificationLimiter, true, h.DeleteRecipe)...)
	}
}

// limited prefixes handler with a rate limit when a limiter is configured
func limited(rl *middleware.RateLimiter, perRecipe bool, handler gin.HandlerFunc) []gin.HandlerFunc {
	switch {
	case rl == nil:
		return []gin.HandlerFunc{handler}
	case perRecipe:
		return []gin.HandlerFunc{rl.PerRecipeRateLimitMiddleware(), handler}
	default:
		return []gin.HandlerFunc{rl.RateLimitMiddleware(), handler}
	}
}

// ListRecipes returns the caller's recipes, newest first
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		writeError(c, h.logger, service.ErrUnauthenticated)
		return
	}

	recipes, err := h.recipes.ListMine(c.Request.Context(), owner)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, types.NewRecipeResponses(recipes))
}

// GetRecipe returns one of the caller's recipes
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		writeError(c, h.logger, service.ErrUnauthenticated)
		return
	}
	id, err := service.ParseRecipeID(c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), owner, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, types.NewRecipeResponse(recipe))
}

// CreateRecipe accepts a multipart form with an optional image file
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		writeError(c, h.logger, service.ErrUnauthenticated)
		return
	}

	input, cleanup, err := h.bindRecipeInput(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	defer cleanup()

	recipe, err := h.recipes.Create(c.Request.Context(), owner, input)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/api/recipes/%s", recipe.ID))
	c.JSON(http.StatusCreated, types.NewRecipeResponse(recipe))
}

// UpdateRecipe fully replaces the editable fields of a recipe
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		writeError(c, h.logger, service.ErrUnauthenticated)
		return
	}
	id, err := service.ParseRecipeID(c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	input, cleanup, err := h.bindRecipeInput(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	defer cleanup()

	if err := h.recipes.Update(c.Request.Context(), owner, id, input); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteRecipe removes a recipe permanently
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		writeError(c, h.logger, service.ErrUnauthenticated)
		return
	}
	id, err := service.ParseRecipeID(c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), owner, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindRecipeInput reads the capped form body. The returned cleanup closes the image part.
func (h *RecipeHandler) bindRecipeInput(c *gin.Context) (types.RecipeInput, func(), error) {
	noop := func() {}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	var (
		form types.RecipeForm
		err  error
	)
	switch c.ContentType() {
	case binding.MIMEMultipartPOSTForm:
		if err = c.Request.ParseMultipartForm(multipartMemory); err == nil {
			err = c.ShouldBindWith(&form, binding.FormMultipart)
		}
	case binding.MIMEPOSTForm:
		err = c.ShouldBindWith(&form, binding.Form)
	default:
		return types.RecipeInput{}, noop, &service.ValidationError{Field: "body", Message: "expected multipart/form-data"}
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return types.RecipeInput{}, noop, fmt.Errorf("%w: limit is %d bytes", errRequestTooLarge, tooLarge.Limit)
		}
		return types.RecipeInput{}, noop, &service.ValidationError{Field: "body", Message: "malformed form body"}
	}

	input := types.RecipeInput{
		Title:       form.Title,
		Description: form.Description,
		Ingredients: form.Ingredients,
		Steps:       form.Steps,
		Category:    form.Category,
	}

	if c.Request.MultipartForm == nil {
		return input, noop, nil
	}
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return input, noop, nil
	}
	if err != nil {
		return types.RecipeInput{}, noop, &service.ValidationError{Field: "image", Message: "unreadable image part"}
	}
	file, err := header.Open()
	if err != nil {
		return types.RecipeInput{}, noop, fmt.Errorf("open image part: %w", err)
	}

	input.Image = &types.ImageUpload{Filename: header.Filename, Size: header.Size, Content: file}
	return input, func() { closeQuietly(file) }, nil
}

func closeQuietly(f multipart.File) {
	_ = f.Close()
}
