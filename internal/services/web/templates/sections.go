package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// Stat is one pre-formatted label and value.
type Stat struct {
	Label string
	Value string
}

// StatisticsSection renders a titled grid with one card per stat in order.
func StatisticsSection(title string, stats []Stat) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<section class="space-y-4" data-statistics>`)
		h.raw(`<h3 class="text-lg font-semibold">`)
		h.text(title)
		h.raw(`</h3><div class="grid grid-cols-1 gap-4 sm:grid-cols-2 lg:grid-cols-4">`)
		for i, stat := range stats {
			h.raw(`<div class="stat rounded-box bg-base-200 shadow-sm" data-stat-index="`, strconv.Itoa(i), `">`)
			h.raw(`<div class="stat-title">`)
			h.text(stat.Label)
			h.raw(`</div><div class="stat-value">`)
			h.text(stat.Value)
			h.raw("</div></div>")
		}
		h.raw("</div></section>")
		return h.err
	})
}

// SectionOptions configures SectionContainer.
type SectionOptions struct {
	ID       string
	Title    string
	Subtitle string
	Icon     templ.Component
}

// SectionContainer renders a titled section around the children supplied
// with templ.WithChildren. Icon and Subtitle are optional; the subtitle
// follows the heading directly.
func SectionContainer(opts SectionOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		children := templ.GetChildren(ctx)
		ctx = templ.ClearChildren(ctx)

		h := &htmlWriter{w: w}
		h.raw("<section")
		if opts.ID != "" {
			h.attr("id", opts.ID)
		}
		h.raw(` class="card bg-base-100 shadow-sm"><div class="card-body gap-4">`)
		h.raw(`<header class="flex items-start gap-3">`)
		if opts.Icon != nil {
			h.raw(`<span class="text-primary" data-section-icon>`)
			h.component(ctx, opts.Icon)
			h.raw("</span>")
		}
		h.raw(`<div><h2 class="card-title">`)
		h.text(opts.Title)
		h.raw("</h2>")
		if opts.Subtitle != "" {
			h.raw(`<p class="text-sm text-base-content/70" data-section-subtitle>`)
			h.text(opts.Subtitle)
			h.raw("</p>")
		}
		h.raw(`</div></header><div class="section-content">`)
		h.component(ctx, children)
		h.raw("</div></div></section>")
		return h.err
	})
}
