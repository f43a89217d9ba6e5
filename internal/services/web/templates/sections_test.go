package templates

import (
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func TestStatisticsSectionRendersCardsInOrder(t *testing.T) {
	got := render(t, StatisticsSection("Summary", []Stat{
		{Label: "Users", Value: "42"},
		{Label: "Orders", Value: "7"},
	}))

	if !strings.Contains(got, ">Summary</h3>") {
		t.Fatalf("StatisticsSection output missing title: %q", got)
	}
	if n := strings.Count(got, `class="stat `); n != 2 {
		t.Fatalf("card count = %d, want 2: %q", n, got)
	}
	first := `<div class="stat-title">Users</div><div class="stat-value">42</div>`
	second := `<div class="stat-title">Orders</div><div class="stat-value">7</div>`
	i, j := strings.Index(got, first), strings.Index(got, second)
	if i < 0 || j < 0 {
		t.Fatalf("StatisticsSection output missing label/value pairs: %q", got)
	}
	if i > j {
		t.Fatalf("cards out of order: %q", got)
	}
}

func TestStatisticsSectionEmpty(t *testing.T) {
	got := render(t, StatisticsSection("Summary", nil))
	if strings.Contains(got, `class="stat `) {
		t.Fatalf("expected no cards: %q", got)
	}
}

func TestSectionContainerWithoutSubtitle(t *testing.T) {
	got := renderWithChildren(t, SectionContainer(SectionOptions{ID: "overview", Title: "Overview"}), templ.Raw("<p>child</p>"))

	if !strings.Contains(got, `id="overview"`) {
		t.Fatalf("missing section id: %q", got)
	}
	if !strings.Contains(got, ">Overview</h2>") {
		t.Fatalf("missing title: %q", got)
	}
	if !strings.Contains(got, "<p>child</p>") {
		t.Fatalf("missing children: %q", got)
	}
	if strings.Contains(got, "data-section-subtitle") {
		t.Fatalf("unexpected subtitle element: %q", got)
	}
	if strings.Contains(got, "data-section-icon") {
		t.Fatalf("unexpected icon element: %q", got)
	}
}

func TestSectionContainerSubtitleFollowsTitle(t *testing.T) {
	got := renderWithChildren(t, SectionContainer(SectionOptions{Title: "Overview", Subtitle: "Acme Pharmacy"}), templ.Raw("<p>child</p>"))

	if !strings.Contains(got, `Overview</h2><p class="text-sm text-base-content/70" data-section-subtitle>Acme Pharmacy</p>`) {
		t.Fatalf("subtitle should directly follow the title: %q", got)
	}
	if strings.Index(got, "Acme Pharmacy") > strings.Index(got, "<p>child</p>") {
		t.Fatalf("subtitle should precede children: %q", got)
	}
}

func TestSectionContainerIcon(t *testing.T) {
	got := renderWithChildren(t, SectionContainer(SectionOptions{Title: "Overview", Icon: Icon("statistics", "")}), templ.NopComponent)
	if !strings.Contains(got, "data-section-icon") || !strings.Contains(got, "#lucide-chart-column") {
		t.Fatalf("missing icon: %q", got)
	}
	if strings.Index(got, "data-section-icon") > strings.Index(got, "Overview") {
		t.Fatalf("icon should precede the title: %q", got)
	}
}

func TestSectionContainerWithoutChildren(t *testing.T) {
	got := render(t, SectionContainer(SectionOptions{Title: "Overview"}))
	if !strings.Contains(got, `<div class="section-content"></div>`) {
		t.Fatalf("expected empty content: %q", got)
	}
}
