package jwtsession

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/louisbranch/pharmadesk/internal/platform/identity"
	"github.com/louisbranch/pharmadesk/internal/platform/sessioncookie"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestProvider(t *testing.T, c *clock) *Provider {
	t.Helper()
	p, err := New(Config{
		Secret:    testSecret,
		Issuer:    "pharmadesk-test",
		MaxAge:    48 * time.Hour,
		UpdateAge: time.Hour,
		Now:       c.Now,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func testUser() identity.User {
	return identity.User{
		Base:      identity.Base{Name: "Ana", Email: "ana@acme.test"},
		Extension: identity.Extension{ID: "u-1", Role: "pharmacist", OrganizationName: "Acme Pharmacy"},
	}
}

func signInCookie(t *testing.T, p *Provider) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	if err := p.SignIn(rr, httptest.NewRequest(http.MethodPost, "/auth/signin", nil), testUser()); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	cookie, err := http.ParseSetCookie(rr.Header().Get("Set-Cookie"))
	if err != nil {
		t.Fatalf("ParseSetCookie() error = %v", err)
	}
	return cookie
}

func requestWith(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	if cookie != nil {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	return req
}

func TestNewRejectsShortSecret(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Secret: []byte("short")}); err == nil {
		t.Fatalf("expected short secret to be rejected")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	p, err := New(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.maxAge != DefaultMaxAge || p.updateAge != DefaultUpdateAge {
		t.Fatalf("defaults = %s/%s", p.maxAge, p.updateAge)
	}
}

func TestSignInThenSessionRoundTrip(t *testing.T) {
	t.Parallel()

	c := &clock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	p := newTestProvider(t, c)
	cookie := signInCookie(t, p)
	if cookie.Name != sessioncookie.Name {
		t.Fatalf("cookie name = %q", cookie.Name)
	}
	if cookie.MaxAge != int((48 * time.Hour).Seconds()) {
		t.Fatalf("MaxAge = %d", cookie.MaxAge)
	}

	got, ok, err := p.Session(requestWith(cookie))
	if err != nil || !ok {
		t.Fatalf("Session() = %v, %v", ok, err)
	}
	if got.User != testUser() {
		t.Fatalf("user = %+v", got.User)
	}
	if !got.Expires.Equal(c.now.Add(48 * time.Hour)) {
		t.Fatalf("Expires = %s", got.Expires)
	}
}

func TestSessionRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	c := &clock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	p := newTestProvider(t, c)
	cookie := signInCookie(t, p)

	c.now = c.now.Add(49 * time.Hour)
	if _, ok, err := p.Session(requestWith(cookie)); ok || err != nil {
		t.Fatalf("Session() = %v, %v; want no session", ok, err)
	}
}

func TestSessionRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	c := &clock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	p := newTestProvider(t, c)
	cookie := signInCookie(t, p)
	parts := strings.Split(cookie.Value, ".")
	if len(parts) != 3 {
		t.Fatalf("expected compact jwt, got %q", cookie.Value)
	}
	forged := identity.ClaimsFromUser(identity.User{Extension: identity.Extension{ID: "u-1", Role: "admin"}}, c.now, time.Hour)
	forged.Issuer = "pharmadesk-test"
	forgedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, forged).SignedString([]byte("another-secret-another-secret-xx"))
	if err != nil {
		t.Fatalf("sign forged: %v", err)
	}
	if _, ok, _ := p.Session(requestWith(&http.Cookie{Name: sessioncookie.Name, Value: forgedToken})); ok {
		t.Fatalf("expected forged token to be rejected")
	}
	if _, ok, _ := p.Session(requestWith(&http.Cookie{Name: sessioncookie.Name, Value: "not-a-token"})); ok {
		t.Fatalf("expected malformed token to be rejected")
	}
}

func TestSessionRejectsForeignIssuer(t *testing.T) {
	t.Parallel()

	c := &clock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	p := newTestProvider(t, c)
	other, err := New(Config{Secret: testSecret, Issuer: "someone-else", Now: c.Now})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	token, err := other.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, ok, _ := p.Session(requestWith(&http.Cookie{Name: sessioncookie.Name, Value: token})); ok {
		t.Fatalf("expected foreign issuer to be rejected")
	}
}

func TestSessionWithoutCookie(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, &clock{now: time.Now()})
	if _, ok, err := p.Session(requestWith(nil)); ok || err != nil {
		t.Fatalf("Session() = %v, %v", ok, err)
	}
}

func TestRefreshReissuesAfterUpdateAge(t *testing.T) {
	t.Parallel()

	c := &clock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	p := newTestProvider(t, c)
	cookie := signInCookie(t, p)

	c.now = c.now.Add(30 * time.Minute)
	req := requestWith(cookie)
	current, _, _ := p.Session(req)
	rr := httptest.NewRecorder()
	if err := p.Refresh(rr, req, current); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if rr.Header().Get("Set-Cookie") != "" {
		t.Fatalf("expected no refresh before update age")
	}

	c.now = c.now.Add(time.Hour)
	rr = httptest.NewRecorder()
	if err := p.Refresh(rr, req, current); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	refreshed, err := http.ParseSetCookie(rr.Header().Get("Set-Cookie"))
	if err != nil {
		t.Fatalf("expected refreshed cookie: %v", err)
	}
	got, ok, _ := p.Session(requestWith(refreshed))
	if !ok {
		t.Fatalf("expected refreshed session")
	}
	if !got.Expires.Equal(c.now.Add(48 * time.Hour)) {
		t.Fatalf("Expires = %s, want slid forward", got.Expires)
	}
}

func TestSignOutClearsCookie(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, &clock{now: time.Now()})
	rr := httptest.NewRecorder()
	if err := p.SignOut(rr, httptest.NewRequest(http.MethodPost, "/auth/signout", nil)); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	cookie, err := http.ParseSetCookie(rr.Header().Get("Set-Cookie"))
	if err != nil {
		t.Fatalf("ParseSetCookie() error = %v", err)
	}
	if cookie.MaxAge >= 0 {
		t.Fatalf("MaxAge = %d, want expired", cookie.MaxAge)
	}
}

func TestSignInRejectsAnonymousUser(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, &clock{now: time.Now()})
	if err := p.SignIn(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil), identity.User{}); err == nil {
		t.Fatalf("expected error for anonymous user")
	}
}
