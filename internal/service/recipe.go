package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pageza/recipebook/backend/internal/model"
	"github.com/pageza/recipebook/backend/internal/types"
)

// RecipeService handles owner-scoped recipe operations
type RecipeService struct {
	repo          RecipeRepository
	images        ImageStore
	logger        *slog.Logger
	maxImageBytes int64
	now           func() time.Time
}

// RecipeOption customises a RecipeService
type RecipeOption func(*RecipeService)

// WithClock replaces the time source used for CreatedAt
func WithClock(now func() time.Time) RecipeOption {
	return func(s *RecipeService) { s.now = now }
}

// WithMaxImageBytes caps image payloads
func WithMaxImageBytes(n int64) RecipeOption {
	return func(s *RecipeService) { s.maxImageBytes = n }
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(repo RecipeRepository, images ImageStore, logger *slog.Logger, opts ...RecipeOption) *RecipeService {
	s := &RecipeService{
		repo:   repo,
		images: images,
		logger: logger.With("component", "recipes"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListMine returns the caller's recipes, newest first
func (s *RecipeService) ListMine(ctx context.Context, owner uuid.UUID) ([]*model.Recipe, error) {
	if owner == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	return s.repo.ListByOwner(ctx, owner)
}

// Get returns one of the caller's recipes
func (s *RecipeService) Get(ctx context.Context, owner, id uuid.UUID) (*model.Recipe, error) {
	if owner == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	return s.repo.Get(ctx, owner, id)
}

// Create validates the input, stores an optional image and inserts the recipe
func (s *RecipeService) Create(ctx context.Context, owner uuid.UUID, in types.RecipeInput) (*model.Recipe, error) {
	if owner == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	fields, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}

	ref, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	recipe := &model.Recipe{
		UserID:      owner,
		Title:       fields.Title,
		Description: fields.Description,
		Ingredients: fields.Ingredients,
		Steps:       fields.Steps,
		Category:    fields.Category,
		ImageURL:    ref,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.repo.Create(ctx, recipe); err != nil {
		s.discardImage(ctx, ref)
		return nil, err
	}

	s.logger.InfoContext(ctx, "recipe created",
		"recipe_id", recipe.ID, "user_id", owner, "has_image", ref != "")
	return recipe, nil
}

// Update fully replaces the editable fields of one of the caller's recipes.
// Without a new image the stored reference is kept; superseded files stay on disk.
func (s *RecipeService) Update(ctx context.Context, owner, id uuid.UUID, in types.RecipeInput) error {
	if owner == uuid.Nil {
		return ErrUnauthenticated
	}

	if _, err := s.repo.Get(ctx, owner, id); err != nil {
		return err
	}

	fields, err := normalizeInput(in)
	if err != nil {
		return err
	}

	ref, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, owner, id, fields, ref); err != nil {
		s.discardImage(ctx, ref)
		return err
	}

	s.logger.InfoContext(ctx, "recipe updated",
		"recipe_id", id, "user_id", owner, "image_replaced", ref != "")
	return nil
}

// Delete permanently removes one of the caller's recipes. Its image file is kept.
func (s *RecipeService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if owner == uuid.Nil {
		return ErrUnauthenticated
	}
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "recipe deleted", "recipe_id", id, "user_id", owner)
	return nil
}

func (s *RecipeService) storeImage(ctx context.Context, img *types.ImageUpload) (string, error) {
	if img == nil {
		return "", nil
	}
	content, contentType, err := ValidateImage(img, s.maxImageBytes)
	if err != nil {
		return "", err
	}
	ref, err := s.images.Save(ctx, img.Filename, contentType, content)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return ref, nil
}

// discardImage is the compensating step when the row write fails after an upload
func (s *RecipeService) discardImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.images.Delete(ctx, ref); err != nil {
		s.logger.WarnContext(ctx, "failed to remove image after aborted write", "ref", ref, "error", err)
	}
}

func normalizeInput(in types.RecipeInput) (RecipeFields, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return RecipeFields{}, invalid("title", "title is required")
	}
	if utf8.RuneCountInString(title) > model.MaxTitleLength {
		return RecipeFields{}, invalid("title", "title must be at most %d characters", model.MaxTitleLength)
	}
	if utf8.RuneCountInString(in.Description) > model.MaxDescriptionLength {
		return RecipeFields{}, invalid("description", "description must be at most %d characters", model.MaxDescriptionLength)
	}

	category, ok := model.NormalizeCategory(in.Category)
	if !ok {
		return RecipeFields{}, invalid("category", "category must be one of %s", strings.Join(model.Categories, ", "))
	}

	return RecipeFields{
		Title:       title,
		Description: in.Description,
		Ingredients: in.Ingredients,
		Steps:       in.Steps,
		Category:    category,
	}, nil
}

// IsClientError reports whether err belongs to the caller-facing taxonomy
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrRateLimited)
}
