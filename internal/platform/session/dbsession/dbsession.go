// Package dbsession keeps sessions as rows in a store, referenced by an
// opaque id in the session cookie. The user is reloaded on every request so
// role and organization changes apply immediately.
package dbsession

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/louisbranch/pharmadesk/internal/platform/id"
	"github.com/louisbranch/pharmadesk/internal/platform/identity"
	"github.com/louisbranch/pharmadesk/internal/platform/requestmeta"
	"github.com/louisbranch/pharmadesk/internal/platform/session"
	"github.com/louisbranch/pharmadesk/internal/platform/sessioncookie"
	"github.com/louisbranch/pharmadesk/internal/platform/timeouts"
)

const (
	// DefaultMaxAge is the idle lifetime of a session row.
	DefaultMaxAge = 30 * 24 * time.Hour
	// DefaultUpdateAge throttles how often a session row's expiry is extended.
	DefaultUpdateAge = 24 * time.Hour
)

// Record is one persisted session.
type Record struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Store persists session rows.
type Store interface {
	PutSession(ctx context.Context, record Record) error
	GetSessionAndUser(ctx context.Context, sessionID string) (Record, identity.User, bool, error)
	TouchSession(ctx context.Context, sessionID string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sessionID string) error
}

// Config tunes session lifetimes.
type Config struct {
	MaxAge    time.Duration
	UpdateAge time.Duration
	// Scheme decides when the session cookie is marked Secure.
	Scheme requestmeta.SchemePolicy
	Now    func() time.Time
}

// Provider implements session.Provider backed by a Store.
type Provider struct {
	store     Store
	maxAge    time.Duration
	updateAge time.Duration
	scheme    requestmeta.SchemePolicy
	now       func() time.Time
	newID     func() (string, error)
}

var (
	_ session.Provider  = (*Provider)(nil)
	_ session.Refresher = (*Provider)(nil)
)

// New builds a Provider over store.
func New(store Store, cfg Config) (*Provider, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	p := &Provider{
		store:     store,
		maxAge:    cfg.MaxAge,
		updateAge: cfg.UpdateAge,
		scheme:    cfg.Scheme,
		now:       cfg.Now,
		newID:     id.NewID,
	}
	if p.maxAge <= 0 {
		p.maxAge = DefaultMaxAge
	}
	if p.updateAge <= 0 {
		p.updateAge = DefaultUpdateAge
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// Session loads the session row named by the cookie. Expired rows are
// deleted and treated as absent.
func (p *Provider) Session(r *http.Request) (identity.Session, bool, error) {
	sessionID, ok := sessioncookie.Read(r)
	if !ok {
		return identity.Session{}, false, nil
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.SessionLookup)
	defer cancel()

	record, user, found, err := p.store.GetSessionAndUser(ctx, sessionID)
	if err != nil {
		return identity.Session{}, false, fmt.Errorf("load session: %w", err)
	}
	if !found || user.IsZero() {
		return identity.Session{}, false, nil
	}
	current := identity.Session{User: user, Expires: record.ExpiresAt.UTC()}
	if record.ExpiresAt.IsZero() || !current.Active(p.now()) {
		if err := p.store.DeleteSession(ctx, sessionID); err != nil {
			return identity.Session{}, false, fmt.Errorf("delete expired session: %w", err)
		}
		return identity.Session{}, false, nil
	}
	return current, true, nil
}

// SignIn creates a session row for user and writes its id to the cookie.
func (p *Provider) SignIn(w http.ResponseWriter, r *http.Request, user identity.User) error {
	if user.ID == "" {
		return errors.New("user id is required")
	}
	sessionID, err := p.newID()
	if err != nil {
		return fmt.Errorf("generate session id: %w", err)
	}
	now := p.now().UTC()
	record := Record{
		ID:        sessionID,
		UserID:    user.ID,
		ExpiresAt: now.Add(p.maxAge),
		CreatedAt: now,
	}
	if err := p.store.PutSession(r.Context(), record); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	sessioncookie.Write(w, r, sessionID, p.maxAge, p.scheme)
	return nil
}

// SignOut deletes the session row and clears the cookie.
func (p *Provider) SignOut(w http.ResponseWriter, r *http.Request) error {
	defer sessioncookie.Clear(w, r, p.scheme)
	sessionID, ok := sessioncookie.Read(r)
	if !ok {
		return nil
	}
	if err := p.store.DeleteSession(r.Context(), sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Refresh extends the session expiry once updateAge has passed since the
// last extension.
func (p *Provider) Refresh(w http.ResponseWriter, r *http.Request, current identity.Session) error {
	sessionID, ok := sessioncookie.Read(r)
	if !ok || current.Expires.IsZero() {
		return nil
	}
	now := p.now().UTC()
	lastExtended := current.Expires.Add(-p.maxAge)
	if now.Sub(lastExtended) < p.updateAge {
		return nil
	}
	expiresAt := now.Add(p.maxAge)
	if err := p.store.TouchSession(r.Context(), sessionID, expiresAt); err != nil {
		return fmt.Errorf("extend session: %w", err)
	}
	sessioncookie.Write(w, r, sessionID, p.maxAge, p.scheme)
	return nil
}
