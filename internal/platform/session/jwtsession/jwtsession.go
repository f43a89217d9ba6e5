// Package jwtsession keeps sessions in a signed token stored in the session
// cookie. No server-side state is kept; signing out only clears the cookie.
package jwtsession

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/louisbranch/pharmadesk/internal/platform/id"
	"github.com/louisbranch/pharmadesk/internal/platform/identity"
	"github.com/louisbranch/pharmadesk/internal/platform/requestmeta"
	"github.com/louisbranch/pharmadesk/internal/platform/session"
	"github.com/louisbranch/pharmadesk/internal/platform/sessioncookie"
)

const (
	// DefaultMaxAge matches the lifetime of a session that is never renewed.
	DefaultMaxAge = 30 * 24 * time.Hour
	// DefaultUpdateAge is how old a token may get before it is re-issued.
	DefaultUpdateAge = 24 * time.Hour
	// MinSecretLength is the minimum HMAC key size in bytes.
	MinSecretLength = 32
)

// Config configures the token provider.
type Config struct {
	Secret    []byte
	Issuer    string
	MaxAge    time.Duration
	UpdateAge time.Duration
	// Scheme decides when the session cookie is marked Secure.
	Scheme requestmeta.SchemePolicy
	Now    func() time.Time
}

// Provider implements session.Provider with HS256 tokens.
type Provider struct {
	secret    []byte
	issuer    string
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

// New validates cfg and builds a Provider.
func New(cfg Config) (*Provider, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSecretLength)
	}
	p := &Provider{
		secret:    append([]byte(nil), cfg.Secret...),
		issuer:    strings.TrimSpace(cfg.Issuer),
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

// Session decodes the session cookie. Missing, malformed, tampered and
// expired tokens all yield no session and no error.
func (p *Provider) Session(r *http.Request) (identity.Session, bool, error) {
	claims, ok := p.claims(r)
	if !ok {
		return identity.Session{}, false, nil
	}
	current := claims.Session()
	if current.User.IsZero() {
		return identity.Session{}, false, nil
	}
	return current, true, nil
}

// SignIn issues a fresh token for user.
func (p *Provider) SignIn(w http.ResponseWriter, r *http.Request, user identity.User) error {
	if user.IsZero() {
		return errors.New("user is required")
	}
	token, err := p.Issue(user)
	if err != nil {
		return err
	}
	sessioncookie.Write(w, r, token, p.maxAge, p.scheme)
	return nil
}

// SignOut clears the session cookie.
func (p *Provider) SignOut(w http.ResponseWriter, r *http.Request) error {
	sessioncookie.Clear(w, r, p.scheme)
	return nil
}

// Refresh re-issues the token once it is older than the update age, sliding
// the expiry forward.
func (p *Provider) Refresh(w http.ResponseWriter, r *http.Request, current identity.Session) error {
	claims, ok := p.claims(r)
	if !ok {
		return nil
	}
	issuedAt := claims.IssuedAtTime()
	if !issuedAt.IsZero() && p.now().Sub(issuedAt) < p.updateAge {
		return nil
	}
	return p.SignIn(w, r, current.User)
}

// Issue signs a token for user without touching any response.
func (p *Provider) Issue(user identity.User) (string, error) {
	claims := identity.ClaimsFromUser(user, p.now(), p.maxAge)
	claims.Issuer = p.issuer
	tokenID, err := p.newID()
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}
	claims.ID = tokenID
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (p *Provider) claims(r *http.Request) (identity.Claims, bool) {
	raw, ok := sessioncookie.Read(r)
	if !ok {
		return identity.Claims{}, false
	}
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	}
	if p.issuer != "" {
		options = append(options, jwt.WithIssuer(p.issuer))
	}
	var claims identity.Claims
	_, err := jwt.NewParser(options...).ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	})
	if err != nil {
		return identity.Claims{}, false
	}
	return claims, true
}
