// Package seed parses seed command flags and creates or updates accounts in
// the web store.
package seed

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/pharmadesk/internal/platform/cmd"
	"github.com/louisbranch/pharmadesk/internal/platform/id"
	"github.com/louisbranch/pharmadesk/internal/services/web/credentials"
	webstorage "github.com/louisbranch/pharmadesk/internal/services/web/storage"
	websqlite "github.com/louisbranch/pharmadesk/internal/services/web/storage/sqlite"
)

// Config holds seed command configuration.
type Config struct {
	DBPath       string `env:"PHARMADESK_DB_PATH" envDefault:"data/pharmadesk.db"`
	BcryptCost   int    `env:"PHARMADESK_BCRYPT_COST" envDefault:"10"`
	Email        string
	Name         string
	Image        string
	Password     string
	Role         string
	Organization string
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	return parseConfig(fs, args, nil)
}

// ParseConfigFrom is ParseConfig with an explicit variable set in place of
// the process environment.
func ParseConfigFrom(fs *flag.FlagSet, args []string, vars map[string]string) (Config, error) {
	if vars == nil {
		vars = map[string]string{}
	}
	return parseConfig(fs, args, vars)
}

func parseConfig(fs *flag.FlagSet, args []string, vars map[string]string) (Config, error) {
	var cfg Config
	err := entrypoint.Load(&cfg, vars, fs, args, func(fs *flag.FlagSet, cfg *Config) {
		fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
		fs.IntVar(&cfg.BcryptCost, "bcrypt-cost", cfg.BcryptCost, "bcrypt cost for new passwords")
		fs.StringVar(&cfg.Email, "email", "", "account email (required)")
		fs.StringVar(&cfg.Name, "name", "", "display name")
		fs.StringVar(&cfg.Image, "image", "", "avatar URL")
		fs.StringVar(&cfg.Password, "password", "", "password (required for new accounts)")
		fs.StringVar(&cfg.Role, "role", "", "role, e.g. pharmacist or admin")
		fs.StringVar(&cfg.Organization, "organization", "", "organization name")
	})
	if err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.Email) == "" {
		return Config{}, errors.New("-email is required")
	}
	return cfg, nil
}

// Run opens the store and seeds the configured account.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSeed, func(ctx context.Context) error {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create database dir: %w", err)
			}
		}
		store, err := websqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open web store: %w", err)
		}
		defer store.Close()

		result, err := SeedUser(ctx, store, cfg, time.Now)
		if err != nil {
			return err
		}
		verb := "updated"
		if result.Created {
			verb = "created"
		}
		user := result.Record.User
		fmt.Fprintf(out, "%s user id=%s email=%s role=%s organization=%q\n", verb, user.ID, user.Email, user.Role, user.OrganizationName)
		return nil
	})
}

// Result reports what SeedUser stored.
type Result struct {
	Record  webstorage.UserRecord
	Created bool
}

// SeedUser creates the account for cfg.Email or updates it in place. Blank
// profile fields keep their stored values; a blank password keeps the stored
// hash.
func SeedUser(ctx context.Context, users webstorage.UserStore, cfg Config, now func() time.Time) (Result, error) {
	if users == nil {
		return Result{}, errors.New("user store is required")
	}
	if now == nil {
		now = time.Now
	}
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" {
		return Result{}, errors.New("email is required")
	}

	record, err := users.GetUserByEmail(ctx, email)
	created := false
	switch {
	case errors.Is(err, webstorage.ErrNotFound):
		if cfg.Password == "" {
			return Result{}, errors.New("password is required for new accounts")
		}
		userID, err := id.NewID()
		if err != nil {
			return Result{}, fmt.Errorf("generate user id: %w", err)
		}
		record = webstorage.UserRecord{CreatedAt: now().UTC()}
		record.User.ID = userID
		created = true
	case err != nil:
		return Result{}, fmt.Errorf("lookup user: %w", err)
	}

	record.User.Email = email
	setIfPresent(&record.User.Name, cfg.Name)
	setIfPresent(&record.User.Image, cfg.Image)
	setIfPresent(&record.User.Role, cfg.Role)
	setIfPresent(&record.User.OrganizationName, cfg.Organization)
	record.PasswordHash = ""
	if cfg.Password != "" {
		hash, err := credentials.HashPassword(cfg.Password, cfg.BcryptCost)
		if err != nil {
			return Result{}, err
		}
		record.PasswordHash = hash
	}
	record.UpdatedAt = now().UTC()

	if err := users.PutUser(ctx, record); err != nil {
		return Result{}, fmt.Errorf("put user: %w", err)
	}
	return Result{Record: record, Created: created}, nil
}

func setIfPresent(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}
