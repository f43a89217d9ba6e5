package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/pharmadesk/internal/platform/httpx"
	"github.com/louisbranch/pharmadesk/internal/platform/identity"
	"github.com/louisbranch/pharmadesk/internal/platform/observability"
	"github.com/louisbranch/pharmadesk/internal/platform/requestmeta"
	"github.com/louisbranch/pharmadesk/internal/platform/session"
	"github.com/louisbranch/pharmadesk/internal/platform/timeouts"
	"github.com/louisbranch/pharmadesk/internal/services/web/routepath"
	webstatic "github.com/louisbranch/pharmadesk/internal/services/web/static"
	webstorage "github.com/louisbranch/pharmadesk/internal/services/web/storage"
)

// Authenticator verifies sign-in credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (identity.User, error)
}

// Config defines startup inputs for the web service.
type Config struct {
	HTTPAddr      string
	Sessions      session.Provider
	Authenticator Authenticator
	Stats         webstorage.StatsReader
	// AllowedRoles limits sign-in and the app routes to these roles. Empty
	// allows every role.
	AllowedRoles []string
	// Scheme decides how the request scheme is resolved for same-origin
	// checks on sign-in and sign-out.
	Scheme requestmeta.SchemePolicy
	Logger *log.Logger
	Now    func() time.Time
}

// Server hosts the web HTTP surface and lifecycle.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewHandler builds the root handler with the shared middleware chain.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("session provider is required")
	}
	if cfg.Authenticator == nil {
		return nil, errors.New("authenticator is required")
	}
	if cfg.Stats == nil {
		return nil, errors.New("stats reader is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	h := &handler{
		sessions:     cfg.Sessions,
		auth:         cfg.Authenticator,
		stats:        cfg.Stats,
		allowedRoles: normalizeRoles(cfg.AllowedRoles),
		scheme:       cfg.Scheme,
		logger:       cfg.Logger,
		now:          cfg.Now,
	}

	mux := http.NewServeMux()
	mux.Handle(routepath.StaticPrefix, http.StripPrefix(routepath.StaticPrefix, http.FileServer(http.FS(webstatic.FS))))
	mux.HandleFunc("GET "+routepath.Health, h.handleHealth)
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET "+routepath.AuthSignIn, h.handleSignInPage)
	mux.HandleFunc("POST "+routepath.AuthSignIn, h.handleSignIn)
	mux.HandleFunc("POST "+routepath.AuthSignOut, h.handleSignOut)
	mux.HandleFunc("GET "+routepath.AuthSession, h.handleSession)

	protected := []httpx.Middleware{session.Require(routepath.AuthSignIn)}
	if len(h.allowedRoles) > 0 {
		protected = append(protected, session.RequireRole(h.writeError, h.allowedRoles...))
	}
	mux.Handle("GET "+routepath.App, httpx.Chain(http.HandlerFunc(h.handleDashboard), protected...))
	mux.Handle("GET "+routepath.AppStats, httpx.Chain(http.HandlerFunc(h.handleStats), protected...))
	mux.HandleFunc("/", h.handleNotFound)

	return httpx.Chain(mux,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		observability.RequestLogger(cfg.Logger, routepath.Health, routepath.StaticPrefix),
		session.Provide(cfg.Sessions),
	), nil
}

// NewServer validates config and constructs a web server.
func NewServer(_ context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose web handler: %w", err)
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}, nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.httpAddr
}

// ListenAndServe serves HTTP traffic until context cancellation or server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("web listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown web http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve web http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	_ = s.httpServer.Close()
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		if role = strings.TrimSpace(role); role != "" {
			out = append(out, role)
		}
	}
	return out
}
