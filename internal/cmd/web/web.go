// Package web parses web command configuration and launches the web service.
package web

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/pharmadesk/internal/platform/cmd"
	"github.com/louisbranch/pharmadesk/internal/platform/i18n/catalog"
	"github.com/louisbranch/pharmadesk/internal/platform/requestmeta"
	"github.com/louisbranch/pharmadesk/internal/platform/session"
	"github.com/louisbranch/pharmadesk/internal/platform/session/dbsession"
	"github.com/louisbranch/pharmadesk/internal/platform/session/jwtsession"
	"github.com/louisbranch/pharmadesk/internal/services/web"
	"github.com/louisbranch/pharmadesk/internal/services/web/credentials"
	websqlite "github.com/louisbranch/pharmadesk/internal/services/web/storage/sqlite"
)

// Session strategies accepted by PHARMADESK_SESSION_STRATEGY.
const (
	StrategyJWT      = "jwt"
	StrategyDatabase = "database"
)

// Config holds web command configuration.
type Config struct {
	HTTPAddr         string        `env:"PHARMADESK_HTTP_ADDR" envDefault:"localhost:8080"`
	DBPath           string        `env:"PHARMADESK_DB_PATH" envDefault:"data/pharmadesk.db"`
	SessionStrategy  string        `env:"PHARMADESK_SESSION_STRATEGY" envDefault:"jwt"`
	AuthSecret       string        `env:"PHARMADESK_AUTH_SECRET"`
	AuthIssuer       string        `env:"PHARMADESK_AUTH_ISSUER" envDefault:"pharmadesk"`
	SessionMaxAge    time.Duration `env:"PHARMADESK_SESSION_MAX_AGE" envDefault:"720h"`
	SessionUpdateAge time.Duration `env:"PHARMADESK_SESSION_UPDATE_AGE" envDefault:"24h"`
	SweepInterval    time.Duration `env:"PHARMADESK_SESSION_SWEEP_INTERVAL" envDefault:"1h"`
	AllowedRoles     []string      `env:"PHARMADESK_ALLOWED_ROLES" envSeparator:","`
	// TrustForwardedProto reads X-Forwarded-Proto from a TLS-terminating proxy.
	TrustForwardedProto bool `env:"PHARMADESK_TRUST_FORWARDED_PROTO" envDefault:"false"`
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
	var roles string
	err := entrypoint.Load(&cfg, vars, fs, args, func(fs *flag.FlagSet, cfg *Config) {
		roles = strings.Join(cfg.AllowedRoles, ",")
		fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
		fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
		fs.StringVar(&cfg.SessionStrategy, "session-strategy", cfg.SessionStrategy, "Session strategy (jwt or database)")
		fs.StringVar(&cfg.AuthIssuer, "auth-issuer", cfg.AuthIssuer, "Session token issuer")
		fs.DurationVar(&cfg.SessionMaxAge, "session-max-age", cfg.SessionMaxAge, "Session lifetime")
		fs.DurationVar(&cfg.SessionUpdateAge, "session-update-age", cfg.SessionUpdateAge, "How often an active session is renewed")
		fs.DurationVar(&cfg.SweepInterval, "session-sweep-interval", cfg.SweepInterval, "Expired session cleanup interval (0 disables)")
		fs.StringVar(&roles, "allowed-roles", roles, "Comma-separated roles allowed to sign in (empty allows all)")
		fs.BoolVar(&cfg.TrustForwardedProto, "trust-forwarded-proto", cfg.TrustForwardedProto, "Trust X-Forwarded-Proto from a TLS-terminating proxy")
	})
	if err != nil {
		return Config{}, err
	}
	cfg.SessionStrategy = strings.ToLower(strings.TrimSpace(cfg.SessionStrategy))
	cfg.AllowedRoles = splitRoles(roles)
	return cfg, nil
}

// Validate reports configuration that cannot start the service.
func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("http address is required")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("database path is required")
	}
	switch c.SessionStrategy {
	case StrategyJWT:
		if len(c.AuthSecret) < jwtsession.MinSecretLength {
			return fmt.Errorf("PHARMADESK_AUTH_SECRET must be at least %d bytes for the jwt strategy", jwtsession.MinSecretLength)
		}
	case StrategyDatabase:
	default:
		return fmt.Errorf("unknown session strategy %q", c.SessionStrategy)
	}
	if c.SessionUpdateAge > c.SessionMaxAge {
		return fmt.Errorf("session update age %s exceeds max age %s", c.SessionUpdateAge, c.SessionMaxAge)
	}
	return nil
}

// SchemePolicy returns how requests resolve their scheme for cookies and
// same-origin checks.
func (c Config) SchemePolicy() requestmeta.SchemePolicy {
	return requestmeta.SchemePolicy{TrustForwardedProto: c.TrustForwardedProto}
}

// Run starts the web service.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWeb, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
}

func run(ctx context.Context, cfg Config) error {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database dir: %w", err)
		}
	}
	store, err := websqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open web store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close web store: %v", err)
		}
	}()

	sessions, err := NewSessionProvider(cfg, store)
	if err != nil {
		return err
	}
	authenticator, err := credentials.NewAuthenticator(store)
	if err != nil {
		return fmt.Errorf("init authenticator: %w", err)
	}

	server, err := web.NewServer(ctx, web.Config{
		HTTPAddr:      cfg.HTTPAddr,
		Sessions:      sessions,
		Authenticator: authenticator,
		Stats:         store,
		AllowedRoles:  cfg.AllowedRoles,
		Scheme:        cfg.SchemePolicy(),
		Logger:        log.Default(),
	})
	if err != nil {
		return fmt.Errorf("init web server: %w", err)
	}
	defer server.Close()

	if cfg.SessionStrategy == StrategyDatabase && cfg.SweepInterval > 0 {
		go SweepExpiredSessions(ctx, store, cfg.SweepInterval, time.Now)
	}

	ReportCatalogGaps(log.Default(), catalog.Default())
	log.Printf("session strategy=%s db=%s", cfg.SessionStrategy, cfg.DBPath)
	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve web: %w", err)
	}
	return nil
}

// NewSessionProvider builds the provider for cfg.SessionStrategy.
func NewSessionProvider(cfg Config, store dbsession.Store) (session.Provider, error) {
	switch cfg.SessionStrategy {
	case StrategyJWT:
		provider, err := jwtsession.New(jwtsession.Config{
			Secret:    []byte(cfg.AuthSecret),
			Issuer:    cfg.AuthIssuer,
			MaxAge:    cfg.SessionMaxAge,
			UpdateAge: cfg.SessionUpdateAge,
			Scheme:    cfg.SchemePolicy(),
		})
		if err != nil {
			return nil, fmt.Errorf("init jwt sessions: %w", err)
		}
		return provider, nil
	case StrategyDatabase:
		provider, err := dbsession.New(store, dbsession.Config{
			MaxAge:    cfg.SessionMaxAge,
			UpdateAge: cfg.SessionUpdateAge,
			Scheme:    cfg.SchemePolicy(),
		})
		if err != nil {
			return nil, fmt.Errorf("init database sessions: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown session strategy %q", cfg.SessionStrategy)
	}
}

// ReportCatalogGaps logs every locale with keys it does not translate. Those
// keys render in the base locale.
func ReportCatalogGaps(logger *log.Logger, bundle *catalog.Bundle) {
	if logger == nil || bundle == nil {
		return
	}
	for _, locale := range bundle.Locales() {
		if missing := bundle.Missing(locale); len(missing) > 0 {
			logger.Printf("catalog locale=%s untranslated=%d fallback=%s keys=%s", locale, len(missing), catalog.BaseLocale, strings.Join(missing, ","))
		}
	}
}

// ExpiredSessionDeleter removes sessions that expired at or before now.
type ExpiredSessionDeleter interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SweepExpiredSessions deletes expired session rows every interval until ctx
// is done.
func SweepExpiredSessions(ctx context.Context, store ExpiredSessionDeleter, interval time.Duration, now func() time.Time) {
	if store == nil || interval <= 0 {
		return
	}
	if now == nil {
		now = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.DeleteExpiredSessions(ctx, now())
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("session sweep failed err=%v", err)
				}
				continue
			}
			if removed > 0 {
				log.Printf("session sweep removed=%d", removed)
			}
		}
	}
}

func splitRoles(raw string) []string {
	var roles []string
	for _, role := range strings.Split(raw, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}
