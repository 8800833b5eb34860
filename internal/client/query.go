package client

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pageza/recipebook/backend/internal/model"
	"github.com/pageza/recipebook/backend/internal/types"
)

// CategoryAll disables the category filter
const CategoryAll = "All"

// SortOrder orders a listing by creation time
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// ParseSortOrder accepts newest, oldest or empty (newest)
func ParseSortOrder(raw string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	default:
		return "", fmt.Errorf("unknown sort order %q (want newest or oldest)", raw)
	}
}

// Query filters and orders already-fetched recipes
type Query struct {
	Search   string
	Category string
	Sort     SortOrder
}

// Validate rejects categories outside the closed set
func (q Query) Validate() error {
	if q.Category == "" || strings.EqualFold(q.Category, CategoryAll) {
		return nil
	}
	if _, ok := model.NormalizeCategory(q.Category); !ok {
		return fmt.Errorf("unknown category %q (want %s or %s)", q.Category, CategoryAll, strings.Join(model.Categories, ", "))
	}
	return nil
}

// Apply returns a new slice; the input is not reordered
func (q Query) Apply(recipes []types.RecipeResponse) []types.RecipeResponse {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	category := ""
	if q.Category != "" && !strings.EqualFold(q.Category, CategoryAll) {
		category, _ = model.NormalizeCategory(q.Category)
	}

	out := make([]types.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		if needle != "" &&
			!strings.Contains(strings.ToLower(r.Title), needle) &&
			!strings.Contains(strings.ToLower(r.Description), needle) {
			continue
		}
		if category != "" && r.Category != category {
			continue
		}
		out = append(out, r)
	}

	oldest := q.Sort == SortOldest
	sort.SliceStable(out, func(i, j int) bool {
		if oldest {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
