package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/pageza/recipebook/backend/config"
	"github.com/pageza/recipebook/backend/internal/database"
	"github.com/pageza/recipebook/backend/internal/logging"
)

const usage = `usage: migrate [flags] <command>

commands:
  up        apply all pending migrations
  down      roll back the most recent migration
  status    print the state of every migration
  version   print the current schema version

flags:
`

func main() {
	dsn := flag.String("dsn", os.Getenv("DATABASE_URL"), "postgres connection string (default: built from config)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *dsn); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(command, dsn string) error {
	logger, closeLog := logging.New(logging.Options{Level: os.Getenv("LOG_LEVEL")})
	defer func() { _ = closeLog() }()

	if dsn == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if cfg.DBDriver != config.DriverPostgres {
			return fmt.Errorf("versioned migrations need postgres, DB_DRIVER is %q", cfg.DBDriver)
		}
		dsn = database.PostgresDSN(cfg)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := database.Goose(); err != nil {
		return err
	}

	switch command {
	case "up":
		err = goose.Up(db, database.MigrationsDir)
	case "down":
		err = goose.Down(db, database.MigrationsDir)
	case "status":
		err = goose.Status(db, database.MigrationsDir)
	case "version":
		err = goose.Version(db, database.MigrationsDir)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}

	logger.Info("migration command finished", "command", command)
	return nil
}
