package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks the loaded configuration and reports every problem at once
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	var problems []ValidationError

	add := func(field, msg string) {
		problems = append(problems, ValidationError{Field: field, Message: msg})
	}

	// The secret's source differs per environment, the message should say where to put it
	secretHint := "jwt_secret secret is required"
	if env == CI {
		secretHint = "JWT_SECRET environment variable is required in CI environment"
	}
	if cfg.JWTSecret == "" {
		add("JWTSecret", secretHint)
	} else if env == Production && len(cfg.JWTSecret) < 32 {
		add("JWTSecret", "must be at least 32 characters in production")
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DBHost == "" {
			add("DBHost", "required for postgres")
		}
		if cfg.DBName == "" {
			add("DBName", "required for postgres")
		}
		if cfg.DBUser == "" {
			add("DBUser", "required for postgres")
		}
		if env == Production && cfg.DBPassword == "" {
			add("DBPassword", "db_password secret is required")
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			add("SQLitePath", "required for sqlite")
		}
	default:
		add("DBDriver", fmt.Sprintf("unsupported driver %q", cfg.DBDriver))
	}

	switch cfg.ImageStorage {
	case ImageStorageLocal:
		if cfg.ImageDir == "" {
			add("ImageDir", "required for local image storage")
		}
	case ImageStorageS3:
		if cfg.S3Bucket == "" {
			add("S3Bucket", "required for s3 image storage")
		}
	default:
		add("ImageStorage", fmt.Sprintf("unsupported storage %q", cfg.ImageStorage))
	}

	if cfg.MaxUploadBytes <= 0 {
		add("MaxUploadBytes", "must be positive")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		add("LogLevel", fmt.Sprintf("unsupported level %q", cfg.LogLevel))
	}

	if len(problems) > 0 {
		lines := make([]string, len(problems))
		for i, p := range problems {
			lines[i] = p.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(lines, "\n"))
	}

	return nil
}
