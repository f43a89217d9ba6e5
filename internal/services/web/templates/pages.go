package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/louisbranch/pharmadesk/internal/platform/icons"
	"github.com/louisbranch/pharmadesk/internal/platform/session"
	"github.com/louisbranch/pharmadesk/internal/services/web/routepath"
)

// LazyLoad renders a loading placeholder that HTMX replaces with the
// fragment at url once the page loads.
func LazyLoad(url string, opts LoadingOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<div")
		h.attr("hx-get", url)
		h.raw(` hx-trigger="load" hx-swap="outerHTML">`)
		h.component(ctx, LoadingState(opts))
		h.raw("</div>")
		return h.err
	})
}

// SignInView is the data behind the sign-in form.
type SignInView struct {
	Page        PageContext
	Error       string
	CallbackURL string
	Email       string
}

// SignInPage renders the credentials form.
func SignInPage(view SignInView) templ.Component {
	form := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		loc := view.Page.Loc
		h := &htmlWriter{w: w}
		h.raw(`<div class="card mx-auto w-full max-w-md bg-base-100 shadow-md"><div class="card-body">`)
		h.raw(`<h1 class="card-title text-2xl">`)
		h.text(T(loc, "auth.signin.title"))
		h.raw(`</h1><p class="mb-2 text-sm text-base-content/70">`)
		h.text(T(loc, "auth.signin.subtitle"))
		h.raw("</p>")
		h.component(ctx, AuthFormError(view.Error))
		h.raw(`<form method="post" class="flex flex-col gap-3"`)
		h.attr("action", routepath.AuthSignIn)
		h.raw("><input")
		h.attr("type", "hidden")
		h.attr("name", session.CallbackParam)
		h.attr("value", view.CallbackURL)
		h.raw(`><label class="floating-label"><span>`)
		h.text(T(loc, "auth.signin.email"))
		h.raw(`</span><input type="email" name="email" class="input w-full" autocomplete="username" required`)
		h.attr("value", view.Email)
		h.raw(`></label><label class="floating-label"><span>`)
		h.text(T(loc, "auth.signin.password"))
		h.raw(`</span><input type="password" name="password" class="input w-full" autocomplete="current-password" required></label>`)
		h.raw(`<button type="submit" class="btn btn-primary mt-2">`)
		h.text(T(loc, "auth.signin.submit"))
		h.raw("</button></form></div></div>")
		return h.err
	})
	return withChildren(Layout(LayoutOptions{Title: T(view.Page.Loc, "auth.signin.title"), Page: view.Page}), form)
}

// DashboardView is the data behind the dashboard page.
type DashboardView struct {
	Page     PageContext
	StatsURL string
}

// DashboardPage renders the overview section and lazily loads statistics.
func DashboardPage(view DashboardView) templ.Component {
	loc := view.Page.Loc
	user := view.Page.User
	statsURL := view.StatsURL
	if statsURL == "" {
		statsURL = routepath.AppStats
	}

	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<p class="text-base-content/80">`)
		h.text(T(loc, "dashboard.welcome", user.DisplayName()))
		h.raw("</p>")
		h.component(ctx, LazyLoad(statsURL, LoadingOptions{Height: "32", Message: T(loc, "dashboard.stats.loading")}))
		return h.err
	})
	section := withChildren(SectionContainer(SectionOptions{
		ID:       "overview",
		Title:    T(loc, "dashboard.overview.title"),
		Subtitle: user.OrganizationName,
		Icon:     Icon(icons.Statistics, ""),
	}), body)
	return withChildren(Layout(LayoutOptions{Title: T(loc, "dashboard.title"), Page: view.Page}), section)
}

// StatsPanel renders the statistics fragment, or an error panel when
// loadErr is set.
func StatsPanel(loc Localizer, stats []Stat, loadErr error) templ.Component {
	if loadErr != nil {
		return ErrorState(T(loc, "dashboard.stats.error"), ErrorOptions{Height: "32"})
	}
	return StatisticsSection(T(loc, "dashboard.stats.title"), stats)
}

// ErrorView is the data behind a full-page error.
type ErrorView struct {
	Page    PageContext
	Status  int
	Message string
}

// ErrorPage renders a full page with an error panel.
func ErrorPage(view ErrorView) templ.Component {
	title := strconv.Itoa(view.Status)
	return withChildren(
		Layout(LayoutOptions{Title: title, Page: view.Page}),
		ErrorState(view.Message, ErrorOptions{}),
	)
}

// withChildren binds children to parent at render time.
func withChildren(parent, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return parent.Render(templ.WithChildren(ctx, children), w)
	})
}
