package client

import (
	"github.com/pageza/recipebook/backend/internal/types"
)

// DefaultRecentCount is how many recipes the profile summary shows
const DefaultRecentCount = 5

// Stats is the profile summary over the caller's fetched recipes
type Stats struct {
	Total          int
	Favorites      int
	CategoriesUsed int
	Recent         []types.RecipeResponse
}

// ComputeStats counts favorites among recipes and keeps the n newest
func ComputeStats(recipes []types.RecipeResponse, favorites *Favorites, n int) Stats {
	stats := Stats{Total: len(recipes)}

	categories := map[string]struct{}{}
	for _, r := range recipes {
		if favorites != nil && favorites.IsFavorite(r.ID) {
			stats.Favorites++
		}
		if r.Category != "" {
			categories[r.Category] = struct{}{}
		}
	}
	stats.CategoriesUsed = len(categories)

	newest := Query{Sort: SortNewest}.Apply(recipes)
	if n >= 0 && len(newest) > n {
		newest = newest[:n]
	}
	stats.Recent = newest
	return stats
}
