package types

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/recipebook/backend/internal/model"
)

// RecipeResponse is the wire representation of a recipe.
// The owner is never part of it.
type RecipeResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Ingredients string    `json:"ingredients"`
	Steps       string    `json:"steps"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewRecipeResponse converts a stored recipe
func NewRecipeResponse(r *model.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Ingredients: r.Ingredients,
		Steps:       r.Steps,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
		CreatedAt:   r.CreatedAt,
	}
}

// NewRecipeResponses converts a listing, preserving order
func NewRecipeResponses(recipes []*model.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, NewRecipeResponse(r))
	}
	return out
}

// ImageUpload is an image payload attached to a create or update
type ImageUpload struct {
	// Filename is the client-supplied name; only its extension is kept
	Filename string
	Size     int64
	Content  io.Reader
}

// RecipeInput carries the form fields of a create or update.
// Updates are full replace: empty optional fields clear the stored value.
type RecipeInput struct {
	Title       string
	Description string
	Ingredients string
	Steps       string
	Category    string
	Image       *ImageUpload
}
