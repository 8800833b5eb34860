package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Field limits for recipe text
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// Category labels accepted for a recipe
const (
	CategoryBreakfast = "Breakfast"
	CategoryLunch     = "Lunch"
	CategoryDinner    = "Dinner"
	CategoryDessert   = "Dessert"
	CategorySnack     = "Snack"
	CategoryOther     = "Other"
)

// Categories is the closed label set, in display order
var Categories = []string{
	CategoryBreakfast,
	CategoryLunch,
	CategoryDinner,
	CategoryDessert,
	CategorySnack,
	CategoryOther,
}

// NormalizeCategory maps raw input onto a canonical label.
// Empty input is Other; the second result is false for labels outside the set.
func NormalizeCategory(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CategoryOther, true
	}
	for _, c := range Categories {
		if strings.EqualFold(c, raw) {
			return c, true
		}
	}
	return "", false
}

// Recipe is a single recipe owned by exactly one user.
// UserID and CreatedAt are written once on insert.
type Recipe struct {
	ID          uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	UserID      uuid.UUID `gorm:"type:varchar(36);not null;index:idx_recipes_user_created,priority:1"`
	Title       string    `gorm:"size:200;not null"`
	Description string    `gorm:"size:2000;not null;default:''"`
	Ingredients string    `gorm:"type:text;not null;default:''"`
	Steps       string    `gorm:"type:text;not null;default:''"`
	Category    string    `gorm:"size:20;not null;default:'Other'"`
	ImageURL    string    `gorm:"size:255;not null;default:''"`
	CreatedAt   time.Time `gorm:"not null;index:idx_recipes_user_created,priority:2,sort:desc"`
	UpdatedAt   time.Time
}

// TableName pins the table name shared with the SQL migrations
func (Recipe) TableName() string {
	return "recipes"
}

// BeforeCreate assigns the identifier
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
