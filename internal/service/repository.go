package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/recipebook/backend/internal/model"
)

// GormRecipeRepository stores recipes in a relational database through gorm
type GormRecipeRepository struct {
	db *gorm.DB
}

// NewGormRecipeRepository creates a repository over db
func NewGormRecipeRepository(db *gorm.DB) *GormRecipeRepository {
	return &GormRecipeRepository{db: db}
}

// owned scopes a query to one owner's rows
func (r *GormRecipeRepository) owned(ctx context.Context, owner uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Recipe{}).Where("user_id = ?", owner)
}

// ListByOwner returns the owner's recipes, newest first
func (r *GormRecipeRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]*model.Recipe, error) {
	var recipes []*model.Recipe
	if err := r.owned(ctx, owner).Order("created_at DESC").Order("id DESC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// Get returns one recipe matching both id and owner
func (r *GormRecipeRepository) Get(ctx context.Context, owner, id uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	err := r.owned(ctx, owner).Where("id = ?", id).First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return &recipe, nil
}

// Create inserts a new recipe
func (r *GormRecipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	if err := r.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}
	return nil
}

// Update overwrites the editable columns of one owned recipe
func (r *GormRecipeRepository) Update(ctx context.Context, owner, id uuid.UUID, fields RecipeFields, imageURL string) error {
	// A map keeps empty strings in the statement so cleared fields are written
	updates := map[string]interface{}{
		"title":       fields.Title,
		"description": fields.Description,
		"ingredients": fields.Ingredients,
		"steps":       fields.Steps,
		"category":    fields.Category,
	}
	if imageURL != "" {
		updates["image_url"] = imageURL
	}

	result := r.owned(ctx, owner).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update recipe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete permanently removes one owned recipe
func (r *GormRecipeRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, owner).Delete(&model.Recipe{})
	if result.Error != nil {
		return fmt.Errorf("delete recipe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
