// Package session exposes the current signed-in identity to HTTP handlers.
//
// A Provider owns how sessions are issued, stored and refreshed. Handlers
// depend only on this package, so a different provider can be swapped in
// without touching them.
package session

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/louisbranch/pharmadesk/internal/platform/errors"
	"github.com/louisbranch/pharmadesk/internal/platform/httpx"
	"github.com/louisbranch/pharmadesk/internal/platform/identity"
	"github.com/louisbranch/pharmadesk/internal/platform/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Provider issues, resolves and revokes sessions.
type Provider interface {
	// Session resolves the session attached to r. The bool is false when the
	// request carries no valid session; err reports provider failures only.
	Session(r *http.Request) (identity.Session, bool, error)
	// SignIn starts a session for user and attaches it to the response.
	SignIn(w http.ResponseWriter, r *http.Request, user identity.User) error
	// SignOut ends the session attached to r.
	SignOut(w http.ResponseWriter, r *http.Request) error
}

// Refresher is implemented by providers that renew sessions while they are in
// use.
type Refresher interface {
	Refresh(w http.ResponseWriter, r *http.Request, current identity.Session) error
}

type sessionKey struct{}

type state struct {
	session identity.Session
	ok      bool
}

var tracer = otel.Tracer("github.com/louisbranch/pharmadesk/internal/platform/session")

// Provide resolves the request session once and makes it available to
// downstream handlers. The wrapped handler always runs.
func Provide(provider Provider) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r == nil || provider == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx, span := tracer.Start(r.Context(), "session.resolve")
			current, ok, err := provider.Session(r.WithContext(ctx))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "resolve session")
				log.Printf("session resolve failed path=%s request_id=%s err=%v", r.URL.Path, httpx.RequestIDFrom(r), err)
				current, ok = identity.Session{}, false
			}
			span.SetAttributes(attribute.Bool("session.authenticated", ok))
			if ok {
				span.SetAttributes(attribute.String("session.user_id", current.User.ID))
				if refresher, can := provider.(Refresher); can {
					if err := refresher.Refresh(w, r.WithContext(ctx), current); err != nil {
						log.Printf("session refresh failed user_id=%s request_id=%s err=%v", current.User.ID, httpx.RequestIDFrom(r), err)
					}
				}
			}
			span.End()

			if !ok {
				current = identity.Session{}
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), current)))
		})
	}
}

// WithSession stores s in ctx. A session without a user is stored as absent.
func WithSession(ctx context.Context, s identity.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionKey{}, state{session: s, ok: !s.User.IsZero()})
}

// FromContext returns the session resolved for the request.
func FromContext(ctx context.Context) (identity.Session, bool) {
	if ctx == nil {
		return identity.Session{}, false
	}
	value, _ := ctx.Value(sessionKey{}).(state)
	return value.session, value.ok
}

// UserFromContext returns the signed-in user, or the zero User.
func UserFromContext(ctx context.Context) identity.User {
	current, _ := FromContext(ctx)
	return current.User
}

// Require redirects requests without a session to signInPath, carrying the
// original location as callbackUrl.
func Require(signInPath string) httpx.Middleware {
	signInPath = strings.TrimSpace(signInPath)
	if signInPath == "" {
		signInPath = "/"
	}
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(httpx.RequestContext(r)); ok {
				next.ServeHTTP(w, r)
				return
			}
			httpx.WriteRedirect(w, r, SignInURL(signInPath, r, ErrorSessionRequired))
		})
	}
}

// Rejections reported by RequireRole. Their keys name catalog messages.
var (
	ErrSignInRequired = apperrors.EK(apperrors.KindUnauthorized, "auth.error.session_required", "sign-in required")
	ErrRoleForbidden  = apperrors.EK(apperrors.KindForbidden, "errors.forbidden", "role not allowed")
)

// ErrorWriter writes a rejection for r.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// RequireRole rejects signed-in users holding none of roles with
// ErrRoleForbidden, and requests without a session with ErrSignInRequired.
// A nil deny writes the error with httpx.WriteError.
func RequireRole(deny ErrorWriter, roles ...string) httpx.Middleware {
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, err error) {
			httpx.WriteError(w, err)
		}
	}
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current, ok := FromContext(httpx.RequestContext(r))
			if !ok {
				deny(w, r, ErrSignInRequired)
				return
			}
			if !current.User.HasRole(roles...) {
				deny(w, r, ErrRoleForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SignInURL builds the sign-in location for r with an optional error code.
func SignInURL(signInPath string, r *http.Request, code ErrorCode) string {
	query := url.Values{}
	if r != nil && r.URL != nil {
		query.Set(CallbackParam, r.URL.RequestURI())
	}
	if code != "" {
		query.Set(ErrorParam, string(code))
	}
	if len(query) == 0 {
		return signInPath
	}
	return signInPath + "?" + query.Encode()
}
