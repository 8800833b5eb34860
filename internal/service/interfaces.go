package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/recipebook/backend/internal/model"
	"github.com/pageza/recipebook/backend/internal/types"
)

// IAuthService defines the identity operations the HTTP layer relies on
type IAuthService interface {
	ValidateToken(token string) (*types.TokenClaims, error)
	GenerateToken(userID uuid.UUID, username string, ttl time.Duration) (string, error)
}

// IRecipeService defines the owner-scoped recipe operations
type IRecipeService interface {
	ListMine(ctx context.Context, owner uuid.UUID) ([]*model.Recipe, error)
	Get(ctx context.Context, owner, id uuid.UUID) (*model.Recipe, error)
	Create(ctx context.Context, owner uuid.UUID, in types.RecipeInput) (*model.Recipe, error)
	Update(ctx context.Context, owner, id uuid.UUID, in types.RecipeInput) error
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

// RecipeFields are the user-editable columns of a recipe
type RecipeFields struct {
	Title       string
	Description string
	Ingredients string
	Steps       string
	Category    string
}

// RecipeRepository persists recipes. Every accessor is keyed by (id, owner)
// and no row outside that compound key is observable through it.
type RecipeRepository interface {
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]*model.Recipe, error)
	Get(ctx context.Context, owner, id uuid.UUID) (*model.Recipe, error)
	Create(ctx context.Context, recipe *model.Recipe) error
	// Update overwrites fields; an empty imageURL leaves the stored one in place
	Update(ctx context.Context, owner, id uuid.UUID, fields RecipeFields, imageURL string) error
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

// ImageStore is the blob location for uploaded recipe images
type ImageStore interface {
	// Save writes the payload under a fresh unique name and returns its reference path
	Save(ctx context.Context, originalName, contentType string, content io.Reader) (string, error)
	// Delete removes a reference written by Save
	Delete(ctx context.Context, ref string) error
}
