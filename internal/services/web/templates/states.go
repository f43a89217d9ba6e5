package templates

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/pharmadesk/internal/platform/icons"
)

// DefaultHeight is the height token used when none, or an unusable one, is
// given.
const DefaultHeight = "64"

var heightToken = regexp.MustCompile(`^(?:\d{1,2}(?:\.5)?|[1-9]/[1-9]|px|auto|full|screen|svh|lvh|dvh|min|max|fit)$`)

// HeightClass returns the height utility class for token.
func HeightClass(token string) string {
	token = strings.TrimSpace(token)
	if !heightToken.MatchString(token) {
		token = DefaultHeight
	}
	return "h-" + token
}

// LoadingOptions configures LoadingState.
type LoadingOptions struct {
	Height  string
	Message string
}

// LoadingState renders a spinner, with Message beneath it when set.
func LoadingState(opts LoadingOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<div")
		h.attr("class", classes("flex w-full flex-col items-center justify-center gap-3", HeightClass(opts.Height)))
		h.raw(` role="status" aria-live="polite">`)
		h.raw(`<span class="loading loading-spinner loading-lg text-primary" aria-hidden="true"></span>`)
		if opts.Message != "" {
			h.raw(`<p class="text-sm text-base-content/70">`)
			h.text(opts.Message)
			h.raw("</p>")
		}
		h.raw("</div>")
		return h.err
	})
}

// ErrorOptions configures ErrorState.
type ErrorOptions struct {
	Height string
}

// ErrorState renders message inside an error panel. The message is shown
// as given.
func ErrorState(message string, opts ErrorOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<div")
		h.attr("class", classes("flex w-full items-center justify-center", HeightClass(opts.Height)))
		h.raw(`><div role="alert" class="alert alert-error max-w-xl">`)
		h.component(ctx, Icon(icons.Alert, "shrink-0"))
		h.raw("<span>")
		h.text(message)
		h.raw("</span></div></div>")
		return h.err
	})
}

// AuthFormError renders message as a form banner. A blank message renders
// nothing.
func AuthFormError(message string) templ.Component {
	if strings.TrimSpace(message) == "" {
		return templ.NopComponent
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div role="alert" class="alert alert-error alert-soft mb-4 text-sm"><span>`)
		h.text(message)
		h.raw("</span></div>")
		return h.err
	})
}
