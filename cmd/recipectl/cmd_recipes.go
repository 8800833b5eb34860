package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pageza/recipebook/backend/internal/client"
	"github.com/pageza/recipebook/backend/internal/types"
)

func runList(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	var (
		search    = fs.String("search", "", "Case-insensitive text to find in title or description")
		category  = fs.String("category", client.CategoryAll, "Category filter")
		sortOrder = fs.String("sort", string(client.SortNewest), "newest or oldest")
		favsOnly  = fs.Bool("favorites", false, "Only show favorites")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: recipectl list [options]

List your recipes. Filtering happens locally on the fetched list.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  recipectl list
  recipectl list --search soup --sort oldest
  recipectl list --category Dessert --favorites
`)
	}

	if err := fs.Parse(args); err != nil {
		fatalf("Error parsing flags: %v", err)
	}

	order, err := client.ParseSortOrder(*sortOrder)
	if err != nil {
		fatalf("Invalid --sort: %v", err)
	}
	query := client.Query{Search: *search, Category: *category, Sort: order}
	if err := query.Validate(); err != nil {
		fatalf("Invalid --category: %v", err)
	}

	a := loadApp()
	recipes, err := a.api.List(ctx)
	check(err)

	if *favsOnly {
		recipes = a.favorites.Select(recipes)
	}
	recipes = query.Apply(recipes)

	if len(recipes) == 0 {
		fmt.Println("No recipes found")
		return
	}

	fmt.Printf("Recipes (%d total):\n\n", len(recipes))
	for _, r := range recipes {
		star := " "
		if a.favorites.IsFavorite(r.ID) {
			star = "*"
		}
		fmt.Printf("%s %s  %-10s %s  %s\n", star, r.ID, r.Category, r.CreatedAt.Local().Format("2006-01-02"), r.Title)
	}
}

func runShow(ctx context.Context, args []string) {
	rawID, rest := splitPositional(args)
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: recipectl show <id>\n")
	}
	if err := fs.Parse(rest); err != nil {
		fatalf("Error parsing flags: %v", err)
	}
	id := requireID(fs, rawID)

	a := loadApp()
	r, err := a.api.Get(ctx, id)
	check(err)
	printRecipe(a, r)
}

// recipeFlags registers the editable fields on fs
type recipeFlags struct {
	title, description, ingredients, steps, category, image *string
}

func newRecipeFlags(fs *flag.FlagSet) recipeFlags {
	return recipeFlags{
		title:       fs.String("title", "", "Recipe title (required, up to 200 characters)"),
		description: fs.String("description", "", "Short description (up to 2000 characters)"),
		ingredients: fs.String("ingredients", "", "Ingredients, free text"),
		steps:       fs.String("steps", "", "Preparation steps, free text"),
		category:    fs.String("category", "", "Breakfast, Lunch, Dinner, Dessert, Snack or Other"),
		image:       fs.String("image", "", "Path to an image file"),
	}
}

// openImage attaches the --image file to form; the returned func closes it
func (f recipeFlags) openImage(a *app, form *client.RecipeForm) func() {
	if *f.image == "" {
		return func() {}
	}
	file, err := a.fs.Open(*f.image)
	if err != nil {
		fatalf("Error opening image: %v", err)
	}
	form.Image = file
	form.ImageName = filepath.Base(*f.image)
	return func() { _ = file.Close() }
}

func runAdd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	flags := newRecipeFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: recipectl add --title <title> [options]

Create a recipe.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  recipectl add --title Tea
  recipectl add --title "Apple pie" --category Dessert --image pie.jpg
`)
	}

	if err := fs.Parse(args); err != nil {
		fatalf("Error parsing flags: %v", err)
	}
	if strings.TrimSpace(*flags.title) == "" {
		fatalf("Title is required")
	}

	a := loadApp()
	form := client.RecipeForm{
		Title:       *flags.title,
		Description: *flags.description,
		Ingredients: *flags.ingredients,
		Steps:       *flags.steps,
		Category:    *flags.category,
	}
	closeImage := flags.openImage(a, &form)
	defer closeImage()

	r, err := a.api.Create(ctx, form)
	check(err)
	fmt.Printf("Created %s\n", r.ID)
}

func runEdit(ctx context.Context, args []string) {
	rawID, rest := splitPositional(args)
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	flags := newRecipeFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: recipectl edit <id> [options]

Edit a recipe. Fields you do not pass keep their current value;
pass an empty string to clear one.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(rest); err != nil {
		fatalf("Error parsing flags: %v", err)
	}
	id := requireID(fs, rawID)

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	a := loadApp()
	current, err := a.api.Get(ctx, id)
	check(err)

	// The server replaces every field, so start from the current values
	form := client.RecipeForm{
		Title:       pick(set["title"], *flags.title, current.Title),
		Description: pick(set["description"], *flags.description, current.Description),
		Ingredients: pick(set["ingredients"], *flags.ingredients, current.Ingredients),
		Steps:       pick(set["steps"], *flags.steps, current.Steps),
		Category:    pick(set["category"], *flags.category, current.Category),
	}
	closeImage := flags.openImage(a, &form)
	defer closeImage()

	check(a.api.Update(ctx, id, form))
	fmt.Printf("Updated %s\n", id)
}

func runDelete(ctx context.Context, args []string) {
	rawID, rest := splitPositional(args)
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: recipectl delete <id> [--yes]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(rest); err != nil {
		fatalf("Error parsing flags: %v", err)
	}
	id := requireID(fs, rawID)

	a := loadApp()
	if !*yes {
		r, err := a.api.Get(ctx, id)
		check(err)
		fmt.Printf("Delete %q? [y/N] ", r.Title)
		var answer string
		_, _ = fmt.Scanln(&answer)
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Println("Aborted")
			return
		}
	}

	check(a.api.Delete(ctx, id))
	fmt.Printf("Deleted %s\n", id)
}

func requireID(fs *flag.FlagSet, positional string) uuid.UUID {
	raw := positional
	if raw == "" {
		raw = fs.Arg(0)
	}
	if raw == "" {
		fs.Usage()
		os.Exit(1)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		fatalf("Invalid recipe id %q", raw)
	}
	return id
}

func pick(set bool, flagValue, current string) string {
	if set {
		return flagValue
	}
	return current
}

func printRecipe(a *app, r *types.RecipeResponse) {
	fav := ""
	if a.favorites.IsFavorite(r.ID) {
		fav = " *"
	}
	fmt.Printf("%s%s\n", r.Title, fav)
	fmt.Printf("  id:       %s\n", r.ID)
	fmt.Printf("  category: %s\n", r.Category)
	fmt.Printf("  created:  %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04"))
	if r.ImageURL != "" {
		fmt.Printf("  image:    %s\n", a.api.ImageURL(r.ImageURL))
	}
	for _, section := range []struct{ label, text string }{
		{"Description", r.Description},
		{"Ingredients", r.Ingredients},
		{"Steps", r.Steps},
	} {
		if strings.TrimSpace(section.text) == "" {
			continue
		}
		fmt.Printf("\n%s:\n%s\n", section.label, section.text)
	}
}
