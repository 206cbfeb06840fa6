package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localesFS embed.FS

// Translator renders message ids in the caller's preferred language.
type Translator struct {
	bundle   *goi18n.Bundle
	fallback string
}

// NewTranslator builds a bundle preloaded with the embedded locales.
func NewTranslator(defaultLanguage string) (*Translator, error) {
	tag, err := language.Parse(defaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("parse default language %q: %w", defaultLanguage, err)
	}

	bundle := goi18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localesFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		p := path.Join("locales", e.Name())
		buf, err := localesFS.ReadFile(p)
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(buf, e.Name()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
	}

	return &Translator{bundle: bundle, fallback: defaultLanguage}, nil
}

// Load merges an extra message file from disk, e.g. "locales/active.fr.json".
func (t *Translator) Load(file string) error {
	_, err := t.bundle.LoadMessageFile(file)
	return err
}

// LoadDir merges every *.json message file in dir and returns how many
// loaded. Files that fail are reported together; the rest stay loaded.
func (t *Translator) LoadDir(dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("list locale files in %s: %w", dir, err)
	}

	var errs []error
	loaded := 0
	for _, f := range files {
		if err := t.Load(f); err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", f, err))
			continue
		}
		loaded++
	}
	return loaded, errors.Join(errs...)
}

// Localize returns the message for id. langs are Accept-Language style values;
// an unknown id comes back unchanged.
func (t *Translator) Localize(id string, langs ...string) string {
	langs = append(langs, t.fallback)
	msg, err := goi18n.NewLocalizer(t.bundle, langs...).Localize(&goi18n.LocalizeConfig{MessageID: id})
	if err != nil {
		return id
	}
	return msg
}
