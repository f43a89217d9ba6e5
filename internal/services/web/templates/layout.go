package templates

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/pharmadesk/internal/platform/branding"
	"github.com/louisbranch/pharmadesk/internal/platform/i18n"
	"github.com/louisbranch/pharmadesk/internal/platform/icons"
	"github.com/louisbranch/pharmadesk/internal/platform/identity"
	"github.com/louisbranch/pharmadesk/internal/services/web/routepath"
)

const (
	stylesheetURL = "https://cdn.jsdelivr.net/npm/daisyui@5/daisyui.css"
	tailwindURL   = "https://cdn.jsdelivr.net/npm/@tailwindcss/browser@4"
	htmxURL       = "https://cdn.jsdelivr.net/npm/htmx.org@2.0.4/dist/htmx.min.js"
	appCSSPath    = routepath.StaticPrefix + "app.css"
)

// PageContext carries request-scoped values every page needs.
type PageContext struct {
	Lang        string
	Loc         Localizer
	CurrentPath string
	// Query is the current request query, carried into language links.
	Query url.Values
	User  identity.User
}

// LayoutOptions configures Layout.
type LayoutOptions struct {
	Title string
	Page  PageContext
}

// ComposePageTitle appends the product name to title unless it is already
// there.
func ComposePageTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" || title == branding.AppName {
		return branding.AppName
	}
	if strings.HasSuffix(title, branding.TitleSeparator+branding.AppName) {
		return title
	}
	return title + branding.TitleSeparator + branding.AppName
}

// LanguageOption is one entry in the language switcher.
type LanguageOption struct {
	Tag    string
	Label  string
	URL    string
	Active bool
}

// LanguageOptions lists supported languages with the page's one marked active.
// Each URL keeps the current query and replaces only the language.
func LanguageOptions(page PageContext) []LanguageOption {
	path := page.CurrentPath
	if path == "" {
		path = routepath.Root
	}
	tags := i18n.SupportedTags()
	options := make([]LanguageOption, 0, len(tags))
	for _, tag := range tags {
		value := tag.String()
		query := url.Values{}
		for key, values := range page.Query {
			query[key] = append([]string(nil), values...)
		}
		query.Set(i18n.LangParam, value)
		options = append(options, LanguageOption{
			Tag:    value,
			Label:  T(page.Loc, "core.lang."+value),
			URL:    path + "?" + query.Encode(),
			Active: strings.EqualFold(value, page.Lang),
		})
	}
	return options
}

// Layout renders the document shell around its children.
func Layout(opts LayoutOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		children := templ.GetChildren(ctx)
		ctx = templ.ClearChildren(ctx)
		page := opts.Page
		lang := page.Lang
		if lang == "" {
			lang = i18n.DefaultTag().String()
		}

		h := &htmlWriter{w: w}
		h.raw("<!DOCTYPE html><html")
		h.attr("lang", lang)
		h.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(ComposePageTitle(opts.Title))
		h.raw("</title>")
		h.raw(`<link rel="stylesheet"`)
		h.attr("href", stylesheetURL)
		h.raw(`><link rel="stylesheet"`)
		h.attr("href", appCSSPath)
		h.raw("><script")
		h.attr("src", tailwindURL)
		h.raw("></script><script")
		h.attr("src", htmxURL)
		h.raw(" defer></script></head>")
		h.raw(`<body class="min-h-screen bg-base-200 text-base-content">`)
		h.component(ctx, IconSprite())
		h.component(ctx, navbar(page))
		h.raw(`<main class="mx-auto max-w-6xl p-4 sm:p-8">`)
		h.component(ctx, children)
		h.raw("</main></body></html>")
		return h.err
	})
}

func navbar(page PageContext) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<nav class="navbar bg-base-100 shadow-sm"><div class="flex-1 gap-2">`)
		h.raw(`<a class="btn btn-ghost text-xl"`)
		h.attr("href", routepath.Root)
		h.raw(">")
		h.text(T(page.Loc, "core.app_name"))
		h.raw("</a>")
		if !page.User.IsZero() {
			h.raw(`<a class="btn btn-ghost btn-sm"`)
			h.attr("href", routepath.App)
			h.raw(">")
			h.component(ctx, Icon(icons.Dashboard, "size-4"))
			h.text(T(page.Loc, "core.nav.dashboard"))
			h.raw("</a>")
		}
		h.raw(`</div><div class="flex-none items-center gap-3">`)
		h.component(ctx, languageMenu(page))
		if !page.User.IsZero() {
			h.component(ctx, userSummary(page))
		}
		h.raw("</div></nav>")
		return h.err
	})
}

func languageMenu(page PageContext) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<ul class="menu menu-horizontal menu-sm"`)
		h.attr("aria-label", T(page.Loc, "core.nav.language"))
		h.raw(">")
		for _, option := range LanguageOptions(page) {
			h.raw("<li><a")
			h.attr("href", option.URL)
			h.attr("hreflang", option.Tag)
			if option.Active {
				h.raw(` class="menu-active" aria-current="true"`)
			}
			h.raw(">")
			h.text(option.Label)
			h.raw("</a></li>")
		}
		h.raw("</ul>")
		return h.err
	})
}

func userSummary(page PageContext) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		user := page.User
		h := &htmlWriter{w: w}
		h.raw(`<div class="flex items-center gap-2" data-session-user>`)
		h.raw(`<span class="font-medium">`)
		h.text(user.DisplayName())
		h.raw("</span>")
		if user.Role != "" {
			h.raw(`<span class="badge badge-primary badge-sm gap-1" data-user-role>`)
			h.component(ctx, Icon(icons.Role, "size-3"))
			h.text(user.Role)
			h.raw("</span>")
		}
		if user.OrganizationName != "" {
			h.raw(`<span class="flex items-center gap-1 text-sm text-base-content/70" data-user-organization`)
			h.attr("title", T(page.Loc, "core.nav.organization"))
			h.raw(">")
			h.component(ctx, Icon(icons.Organization, "size-4"))
			h.text(user.OrganizationName)
			h.raw("</span>")
		}
		h.raw(`<form method="post"`)
		h.attr("action", routepath.AuthSignOut)
		h.raw(`><button type="submit" class="btn btn-ghost btn-sm">`)
		h.component(ctx, Icon(icons.SignOut, "size-4"))
		h.text(T(page.Loc, "auth.signout"))
		h.raw("</button></form></div>")
		return h.err
	})
}
