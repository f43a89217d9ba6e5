package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/pharmadesk/internal/platform/errors"
	"github.com/louisbranch/pharmadesk/internal/platform/httpx"
	"github.com/louisbranch/pharmadesk/internal/platform/i18n"
	"github.com/louisbranch/pharmadesk/internal/platform/otel"
	"github.com/louisbranch/pharmadesk/internal/platform/requestmeta"
	"github.com/louisbranch/pharmadesk/internal/platform/session"
	"github.com/louisbranch/pharmadesk/internal/platform/timeouts"
	"github.com/louisbranch/pharmadesk/internal/services/web/routepath"
	webstorage "github.com/louisbranch/pharmadesk/internal/services/web/storage"
	webtemplates "github.com/louisbranch/pharmadesk/internal/services/web/templates"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var tracer = otel.Tracer("github.com/louisbranch/pharmadesk/internal/services/web")

// emailParam carries the submitted email back to the form after a failed
// sign-in.
const emailParam = "email"

type handler struct {
	sessions     session.Provider
	auth         Authenticator
	stats        webstorage.StatsReader
	allowedRoles []string
	scheme       requestmeta.SchemePolicy
	logger       *log.Logger
	now          func() time.Time
}

// pageContext resolves language and identity for page rendering.
func (h *handler) pageContext(w http.ResponseWriter, r *http.Request) (webtemplates.PageContext, *message.Printer) {
	printer, lang := i18n.ResolveLocalizer(w, r)
	return webtemplates.PageContext{
		Lang:        lang,
		Loc:         printer,
		CurrentPath: r.URL.Path,
		Query:       r.URL.Query(),
		User:        session.UserFromContext(r.Context()),
	}, printer
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, status int, component templ.Component) {
	if err := httpx.WriteComponent(w, r, status, component); err != nil {
		h.logger.Printf("render failed path=%s request_id=%s err=%v", r.URL.Path, httpx.RequestIDFrom(r), err)
	}
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.FromContext(r.Context()); ok {
		httpx.WriteRedirect(w, r, routepath.App)
		return
	}
	httpx.WriteRedirect(w, r, routepath.AuthSignIn)
}

var (
	errPageNotFound = apperrors.EK(apperrors.KindNotFound, "errors.not_found", "page not found")
	errCrossOrigin  = apperrors.EK(apperrors.KindForbidden, "errors.forbidden", "cross-origin request rejected")
)

func (h *handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, errPageNotFound)
}

// writeError renders err as a full error page with a user-safe message.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Printf("request failed path=%s request_id=%s err=%v", r.URL.Path, httpx.RequestIDFrom(r), err)
	}
	page, printer := h.pageContext(w, r)
	h.render(w, r, status, webtemplates.ErrorPage(webtemplates.ErrorView{
		Page:    page,
		Status:  status,
		Message: publicMessage(printer, err),
	}))
}

// publicMessage resolves a localized message for err that never exposes its
// cause.
func publicMessage(printer *message.Printer, err error) string {
	if key := apperrors.LocalizationKey(err); key != "" {
		return printer.Sprintf(key)
	}
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		return printer.Sprintf("errors.internal")
	}
	return http.StatusText(status)
}

func (h *handler) handleSignInPage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	callback := requestmeta.SafeRedirectPath(query.Get(session.CallbackParam), routepath.DefaultCallback)
	if _, ok := session.FromContext(r.Context()); ok {
		httpx.WriteRedirect(w, r, callback)
		return
	}

	page, printer := h.pageContext(w, r)
	view := webtemplates.SignInView{
		Page:        page,
		CallbackURL: callback,
		Email:       strings.TrimSpace(query.Get(emailParam)),
	}
	if key := session.ParseErrorCode(query.Get(session.ErrorParam)).MessageKey(); key != "" {
		view.Error = printer.Sprintf(key)
	}
	h.render(w, r, http.StatusOK, webtemplates.SignInPage(view))
}

func (h *handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if !requestmeta.HasSameOriginProofWithPolicy(r, h.scheme) {
		h.writeError(w, r, errCrossOrigin)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, apperrors.Wrap(apperrors.KindInvalidInput, "invalid form", err))
		return
	}
	callback := requestmeta.SafeRedirectPath(r.PostFormValue(session.CallbackParam), routepath.DefaultCallback)
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	ctx, span := tracer.Start(r.Context(), "auth.signin")
	defer span.End()

	code := h.signIn(ctx, w, r.WithContext(ctx), email, password)
	span.SetAttributes(attribute.Bool("auth.success", code == ""))
	if code != "" {
		span.SetStatus(codes.Error, string(code))
		httpx.WriteRedirect(w, r, routepath.WithQuery(routepath.AuthSignIn,
			session.CallbackParam, callback,
			session.ErrorParam, string(code),
			emailParam, email,
		))
		return
	}
	httpx.WriteRedirect(w, r, callback)
}

// signIn authenticates and starts a session, returning the error code to
// show on failure or "" on success.
func (h *handler) signIn(ctx context.Context, w http.ResponseWriter, r *http.Request, email, password string) session.ErrorCode {
	user, err := h.auth.Authenticate(ctx, email, password)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindUnauthorized {
			h.logger.Printf("sign-in rejected request_id=%s", httpx.RequestIDFrom(r))
			return session.ErrorCredentialsSignin
		}
		h.logger.Printf("sign-in failed request_id=%s err=%v", httpx.RequestIDFrom(r), err)
		return session.ErrorDefault
	}
	if len(h.allowedRoles) > 0 && !user.HasRole(h.allowedRoles...) {
		h.logger.Printf("sign-in denied user_id=%s role=%s request_id=%s", user.ID, user.Role, httpx.RequestIDFrom(r))
		return session.ErrorAccessDenied
	}
	if err := h.sessions.SignIn(w, r, user); err != nil {
		h.logger.Printf("session start failed user_id=%s request_id=%s err=%v", user.ID, httpx.RequestIDFrom(r), err)
		return session.ErrorConfiguration
	}
	h.logger.Printf("sign-in succeeded user_id=%s request_id=%s", user.ID, httpx.RequestIDFrom(r))
	return ""
}

func (h *handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if !requestmeta.HasSameOriginProofWithPolicy(r, h.scheme) {
		h.writeError(w, r, errCrossOrigin)
		return
	}
	if err := h.sessions.SignOut(w, r); err != nil {
		h.logger.Printf("sign-out failed request_id=%s err=%v", httpx.RequestIDFrom(r), err)
	}
	httpx.WriteRedirect(w, r, routepath.AuthSignIn)
}

func (h *handler) handleSession(w http.ResponseWriter, r *http.Request) {
	current, ok := session.FromContext(r.Context())
	if !ok {
		_ = httpx.WriteJSON(w, http.StatusOK, struct{}{})
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, current)
}

func (h *handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	page, _ := h.pageContext(w, r)
	h.render(w, r, http.StatusOK, webtemplates.DashboardPage(webtemplates.DashboardView{
		Page:     page,
		StatsURL: routepath.AppStats,
	}))
}

// handleStats renders the statistics fragment. Load failures still answer
// 200 so HTMX swaps the error panel in.
func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	printer, _ := i18n.ResolveLocalizer(w, r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.StatsQuery)
	defer cancel()

	stats, err := h.stats.Stats(ctx, h.now())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = apperrors.Wrap(apperrors.KindUnavailable, "stats timed out", err)
		}
		h.logger.Printf("stats load failed kind=%s request_id=%s err=%v", apperrors.KindOf(err), httpx.RequestIDFrom(r), err)
		h.render(w, r, http.StatusOK, webtemplates.StatsPanel(printer, nil, err))
		return
	}
	h.render(w, r, http.StatusOK, webtemplates.StatsPanel(printer, statCards(printer, stats), nil))
}

func statCards(printer *message.Printer, stats webstorage.Stats) []webtemplates.Stat {
	format := func(n int) string {
		return printer.Sprint(number.Decimal(n))
	}
	return []webtemplates.Stat{
		{Label: printer.Sprintf("dashboard.stats.users"), Value: format(stats.Users)},
		{Label: printer.Sprintf("dashboard.stats.organizations"), Value: format(stats.Organizations)},
		{Label: printer.Sprintf("dashboard.stats.roles"), Value: format(stats.Roles)},
		{Label: printer.Sprintf("dashboard.stats.sessions"), Value: format(stats.ActiveSessions)},
	}
}
