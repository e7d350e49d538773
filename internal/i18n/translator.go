package i18n

import (
	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
)

// Translator resolves dotted keys against a Table, falling back to the
// default language and then to the key itself.
type Translator struct {
	table       *Table
	defaultLang string
}

// NewTranslator binds a table to its default language, which must be present.
func NewTranslator(table *Table, defaultLang string) (*Translator, error) {
	if table == nil || !table.Has(defaultLang) {
		return nil, errors.NewError(errors.CategoryI18n, "default language has no translation table").
			WithContext("lang", defaultLang).
			Build()
	}
	return &Translator{table: table, defaultLang: defaultLang}, nil
}

// DefaultLanguage returns the fallback language code.
func (tr *Translator) DefaultLanguage() string { return tr.defaultLang }

// Lookup returns the string for key in lang, then in the default language,
// then key verbatim. It never fails.
func (tr *Translator) Lookup(lang, key string) string {
	if v, ok := tr.table.Get(lang, key); ok {
		return v
	}
	if v, ok := tr.table.Get(tr.defaultLang, key); ok {
		return v
	}
	return key
}

// For returns a lookup bound to lang, suitable as a template function.
func (tr *Translator) For(lang string) func(string) string {
	return func(key string) string {
		return tr.Lookup(lang, key)
	}
}

// MissingKeys lists keys defined for the default language but absent for lang.
func (tr *Translator) MissingKeys(lang string) []string {
	var missing []string
	for _, key := range tr.table.Keys(tr.defaultLang) {
		if _, ok := tr.table.Get(lang, key); !ok {
			missing = append(missing, key)
		}
	}
	return missing
}
