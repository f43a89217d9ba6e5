// Package catalog loads the embedded UI copy and registers it with
// golang.org/x/text/message.
//
// Files live at locales/<locale>/<namespace>.yaml and every key must start
// with "<namespace>.".
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every other catalog is translated from.
const BaseLocale = "en-US"

type file struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Bundle holds messages keyed by locale then message key.
type Bundle struct {
	messages map[string]map[string]string
}

//go:embed locales/*/*.yaml
var embedded embed.FS

var defaultBundle = mustRegister(LoadEmbedded())

// Default returns the embedded bundle, registered at package init.
func Default() *Bundle {
	return defaultBundle
}

// LoadEmbedded loads the catalogs compiled into the binary.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embedded)
}

// LoadFromFS loads every locales/*/*.yaml file in fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	slices.Sort(paths)

	b := &Bundle{messages: map[string]map[string]string{}}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var f file
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := b.add(p, f); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", p, err)
		}
	}
	if !b.HasLocale(BaseLocale) {
		return nil, fmt.Errorf("base locale %s has no catalog", BaseLocale)
	}
	return b, nil
}

func (b *Bundle) add(p string, f file) error {
	locale := strings.TrimSpace(f.Locale)
	if want := path.Base(path.Dir(p)); locale != want {
		return fmt.Errorf("locale %q does not match directory %q", locale, want)
	}
	namespace := strings.TrimSpace(f.Namespace)
	if want := strings.TrimSuffix(path.Base(p), ".yaml"); namespace != want {
		return fmt.Errorf("namespace %q does not match file name %q", namespace, want)
	}
	if len(f.Messages) == 0 {
		return fmt.Errorf("no messages")
	}

	dst := b.messages[locale]
	if dst == nil {
		dst = map[string]string{}
		b.messages[locale] = dst
	}
	for key, value := range f.Messages {
		key = strings.TrimSpace(key)
		if !strings.HasPrefix(key, namespace+".") {
			return fmt.Errorf("key %q is outside namespace %q", key, namespace)
		}
		if _, dup := dst[key]; dup {
			return fmt.Errorf("duplicate key %q", key)
		}
		dst[key] = value
	}
	return nil
}

// HasLocale reports whether any catalog was loaded for locale.
func (b *Bundle) HasLocale(locale string) bool {
	if b == nil {
		return false
	}
	_, ok := b.messages[strings.TrimSpace(locale)]
	return ok
}

// Locales lists loaded locales in sorted order.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	out := make([]string, 0, len(b.messages))
	for locale := range b.messages {
		out = append(out, locale)
	}
	slices.Sort(out)
	return out
}

// Message looks key up in locale, then in BaseLocale.
func (b *Bundle) Message(locale, key string) (string, bool) {
	if b == nil {
		return "", false
	}
	key = strings.TrimSpace(key)
	for _, candidate := range []string{strings.TrimSpace(locale), BaseLocale} {
		if value, ok := b.messages[candidate][key]; ok && key != "" {
			return value, true
		}
	}
	return "", false
}

// Missing lists BaseLocale keys that locale does not translate.
func (b *Bundle) Missing(locale string) []string {
	if b == nil {
		return nil
	}
	var out []string
	for key := range b.messages[BaseLocale] {
		if _, ok := b.messages[locale][key]; !ok {
			out = append(out, key)
		}
	}
	slices.Sort(out)
	return out
}

// Register installs every message with x/text/message. Each locale is also
// registered under its bare language so "pt" resolves pt-BR copy, and
// untranslated keys fall back to BaseLocale text.
func (b *Bundle) Register() error {
	if b == nil {
		return nil
	}
	for _, locale := range b.Locales() {
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale %q: %w", locale, err)
		}
		tags := []language.Tag{tag}
		if base, confidence := tag.Base(); confidence != language.No {
			if bare := language.Make(base.String()); bare != tag {
				tags = append(tags, bare)
			}
		}
		for key := range b.messages[BaseLocale] {
			value, _ := b.Message(locale, key)
			for _, t := range tags {
				if err := message.SetString(t, key, value); err != nil {
					return fmt.Errorf("register %s %q: %w", locale, key, err)
				}
			}
		}
		for key, value := range b.messages[locale] {
			for _, t := range tags {
				if err := message.SetString(t, key, value); err != nil {
					return fmt.Errorf("register %s %q: %w", locale, key, err)
				}
			}
		}
	}
	return nil
}

func mustRegister(b *Bundle, err error) *Bundle {
	if err == nil {
		err = b.Register()
	}
	if err != nil {
		panic(err)
	}
	return b
}
