package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/afero"

	"github.com/pageza/recipebook/backend/internal/client"
)

// configEnv names an alternative settings file
const configEnv = "RECIPEBOOK_CONFIG"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	command := os.Args[1]
	args := os.Args[2:]

	// Dispatch to subcommand
	switch command {
	case "login":
		runLogin(ctx, args)
	case "logout":
		runLogout(ctx, args)
	case "token":
		runToken(ctx, args)
	case "list":
		runList(ctx, args)
	case "show":
		runShow(ctx, args)
	case "add":
		runAdd(ctx, args)
	case "edit":
		runEdit(ctx, args)
	case "delete":
		runDelete(ctx, args)
	case "fav":
		runFav(ctx, args)
	case "stats":
		runStats(ctx, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`recipectl - manage your recipe book from the terminal

Usage:
  recipectl <command> [options]

Commands:
  login     Save a bearer token for later commands
  logout    Forget the saved token (favorites are kept)
  token     Sign a development token with JWT_SECRET
  list      List your recipes with search, category and sort
  show      Show one recipe
  add       Create a recipe
  edit      Edit a recipe
  delete    Delete a recipe
  fav       Toggle a recipe as favorite
  stats     Summarise your recipe book

Settings are read from $RECIPEBOOK_CONFIG or the user config directory.
Use "recipectl <command> --help" for more information about a command.`)
}

// app is the state shared by subcommands, created once per invocation
type app struct {
	fs        afero.Fs
	settings  client.Settings
	session   *client.Session
	favorites *client.Favorites
	api       *client.Client
}

func loadApp() *app {
	fs := afero.NewOsFs()

	path := os.Getenv(configEnv)
	if path == "" {
		path = client.DefaultSettingsPath()
	}
	settings, err := client.LoadSettings(fs, path)
	if err != nil {
		fatalf("Error loading settings: %v", err)
	}

	session, err := client.OpenSession(fs, settings.StateDir)
	if err != nil {
		fatalf("Error opening session: %v", err)
	}
	favorites, err := client.LoadFavorites(fs, settings.StateDir)
	if err != nil {
		fatalf("Error loading favorites: %v", err)
	}
	api, err := client.New(settings.APIURL, session)
	if err != nil {
		fatalf("Error creating client: %v", err)
	}

	return &app{fs: fs, settings: settings, session: session, favorites: favorites, api: api}
}

// check exits with a message tailored to the error
func check(err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, client.ErrNotLoggedIn):
		fatalf("Not logged in. Run: recipectl login --token <jwt>")
	case client.IsUnauthorized(err):
		fatalf("The server rejected your token. Run: recipectl login --token <jwt>")
	case client.IsNotFound(err):
		fatalf("Recipe not found")
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Field != "" {
		fatalf("Invalid %s: %s", apiErr.Field, apiErr.Message)
	}
	fatalf("Error: %v", err)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// splitPositional lets a leading id come before the flags: "edit <id> --title x"
func splitPositional(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}
