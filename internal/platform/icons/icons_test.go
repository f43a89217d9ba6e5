package icons

import (
	"strings"
	"testing"
)

func TestEveryIconHasLucideGeometry(t *testing.T) {
	for _, id := range []ID{Dashboard, Statistics, Organization, Role, SignOut, Alert} {
		name, ok := lucideIconNames[id]
		if !ok {
			t.Errorf("missing Lucide mapping for %s", id)
			continue
		}
		if _, ok := lucideGeometry[name]; !ok {
			t.Errorf("missing geometry for %s", name)
		}
	}
}

func TestLucideNameOrDefault(t *testing.T) {
	if got := LucideNameOrDefault(Organization); got != "building-2" {
		t.Fatalf("LucideNameOrDefault(Organization) = %q", got)
	}
	if got := LucideNameOrDefault(ID("unknown")); got != "circle-alert" {
		t.Fatalf("LucideNameOrDefault(unknown) = %q", got)
	}
}

func TestLucideSpriteContainsSymbols(t *testing.T) {
	sprite := LucideSprite()
	for id := range lucideIconNames {
		symbol := `id="` + LucideSymbolID(LucideNameOrDefault(id)) + `"`
		if !strings.Contains(sprite, symbol) {
			t.Errorf("sprite missing %s", symbol)
		}
	}
}
