package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/recipebook/backend/internal/service"
)

func runLogin(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	token := fs.String("token", "", "Bearer token issued by the identity provider")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: recipectl login --token <jwt>

Save a bearer token. The token is checked against the server.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fatalf("Error parsing flags: %v", err)
	}
	if *token == "" {
		fs.Usage()
		os.Exit(1)
	}

	a := loadApp()
	if err := a.session.Login(*token); err != nil {
		fatalf("Error saving token: %v", err)
	}

	// A listing proves the server accepts the credential
	if _, err := a.api.List(ctx); err != nil {
		_ = a.session.Logout()
		check(err)
	}

	name := a.session.User().Username
	if name == "" {
		name = a.session.User().ID.String()
	}
	fmt.Printf("Logged in as %s\n", name)
}

func runLogout(_ context.Context, args []string) {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fatalf("Error parsing flags: %v", err)
	}

	a := loadApp()
	if err := a.session.Logout(); err != nil {
		fatalf("Error logging out: %v", err)
	}
	fmt.Println("Logged out")
}

func runToken(_ context.Context, args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	var (
		user = fs.String("user", "", "User id (uuid); a random one when empty")
		name = fs.String("name", "", "Username claim")
		ttl  = fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: recipectl token [options]

Sign a development token with the JWT_SECRET environment variable.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  JWT_SECRET=... recipectl token --name ana
  recipectl login --token "$(JWT_SECRET=... recipectl token)"
`)
	}

	if err := fs.Parse(args); err != nil {
		fatalf("Error parsing flags: %v", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fatalf("JWT_SECRET is not set")
	}

	id := uuid.New()
	if *user != "" {
		parsed, err := uuid.Parse(*user)
		if err != nil {
			fatalf("Invalid --user: %v", err)
		}
		id = parsed
	}

	token, err := service.NewAuthService(secret).GenerateToken(id, *name, *ttl)
	if err != nil {
		fatalf("Error signing token: %v", err)
	}
	fmt.Println(token)
}
