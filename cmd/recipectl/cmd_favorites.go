package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pageza/recipebook/backend/internal/client"
)

func runFav(_ context.Context, args []string) {
	rawID, rest := splitPositional(args)
	fs := flag.NewFlagSet("fav", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: recipectl fav <id>

Toggle a recipe as favorite. Favorites live on this machine only and survive logout.
`)
	}
	if err := fs.Parse(rest); err != nil {
		fatalf("Error parsing flags: %v", err)
	}
	id := requireID(fs, rawID)

	a := loadApp()
	on, err := a.favorites.Toggle(id)
	if err != nil {
		fatalf("Error saving favorites: %v", err)
	}
	if on {
		fmt.Printf("Added %s to favorites\n", id)
	} else {
		fmt.Printf("Removed %s from favorites\n", id)
	}
}

func runStats(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	recent := fs.Int("recent", client.DefaultRecentCount, "How many recent recipes to show")
	if err := fs.Parse(args); err != nil {
		fatalf("Error parsing flags: %v", err)
	}

	a := loadApp()
	recipes, err := a.api.List(ctx)
	check(err)

	stats := client.ComputeStats(recipes, a.favorites, *recent)

	if user := a.session.User(); user != nil && user.Username != "" {
		fmt.Printf("%s\n\n", user.Username)
	}
	fmt.Printf("Recipes:         %d\n", stats.Total)
	fmt.Printf("Favorites:       %d\n", stats.Favorites)
	fmt.Printf("Categories used: %d\n", stats.CategoriesUsed)

	if len(stats.Recent) > 0 {
		fmt.Println("\nRecent:")
		for _, r := range stats.Recent {
			fmt.Printf("  %s  %s\n", r.CreatedAt.Local().Format("2006-01-02"), r.Title)
		}
	}
}
