package seed

import (
	"context"
	"flag"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/pharmadesk/internal/services/web/credentials"
	websqlite "github.com/louisbranch/pharmadesk/internal/services/web/storage/sqlite"
)

func TestParseConfigRequiresEmail(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := ParseConfigFrom(fs, []string{"-password", "longenough"}, nil); err == nil {
		t.Fatal("expected error without -email")
	}
}

func TestParseConfigFlags(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfigFrom(fs, []string{
		"-email", "ana@example.com",
		"-name", "Ana Souza",
		"-password", "correct horse",
		"-role", "pharmacist",
		"-organization", "Acme Pharmacy",
	}, map[string]string{"PHARMADESK_DB_PATH": "/tmp/seed.db", "PHARMADESK_BCRYPT_COST": "4"})
	if err != nil {
		t.Fatalf("ParseConfigFrom() error = %v", err)
	}
	if cfg.DBPath != "/tmp/seed.db" || cfg.BcryptCost != 4 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Email != "ana@example.com" || cfg.Role != "pharmacist" || cfg.Organization != "Acme Pharmacy" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func openStore(t *testing.T) *websqlite.Store {
	t.Helper()
	store, err := websqlite.Open(context.Background(), filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func fixedClock() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestSeedUserCreatesThenUpdates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t)

	created, err := SeedUser(ctx, store, Config{
		BcryptCost:   4,
		Email:        " Ana@Example.com ",
		Name:         "Ana Souza",
		Password:     "correct horse",
		Role:         "pharmacist",
		Organization: "Acme Pharmacy",
	}, fixedClock)
	if err != nil {
		t.Fatalf("SeedUser(create) error = %v", err)
	}
	if !created.Created || created.Record.User.ID == "" {
		t.Fatalf("create result = %+v", created)
	}

	updated, err := SeedUser(ctx, store, Config{Email: "ana@example.com", Role: "admin"}, fixedClock)
	if err != nil {
		t.Fatalf("SeedUser(update) error = %v", err)
	}
	if updated.Created {
		t.Fatal("expected update of existing account")
	}
	if updated.Record.User.ID != created.Record.User.ID {
		t.Fatalf("user id changed: %q -> %q", created.Record.User.ID, updated.Record.User.ID)
	}

	stored, err := store.GetUserByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if stored.User.Role != "admin" || stored.User.Name != "Ana Souza" || stored.User.OrganizationName != "Acme Pharmacy" {
		t.Fatalf("stored user = %+v", stored.User)
	}

	auth, err := credentials.NewAuthenticator(store)
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}
	if _, err := auth.Authenticate(ctx, "ana@example.com", "correct horse"); err != nil {
		t.Fatalf("password should survive update: %v", err)
	}
}

func TestSeedUserRequiresPasswordForNewAccount(t *testing.T) {
	t.Parallel()

	if _, err := SeedUser(context.Background(), openStore(t), Config{Email: "new@example.com"}, fixedClock); err == nil {
		t.Fatal("expected error without password")
	}
}

func TestSeedUserRejectsShortPassword(t *testing.T) {
	t.Parallel()

	if _, err := SeedUser(context.Background(), openStore(t), Config{Email: "new@example.com", Password: "short"}, fixedClock); err == nil {
		t.Fatal("expected error for short password")
	}
}
