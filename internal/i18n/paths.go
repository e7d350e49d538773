package i18n

import (
	"net/url"
	"strings"
)

// Language is a configured site language.
type Language struct {
	Code string
	Name string
}

// Paths implements the URL convention for a set of languages.
type Paths struct {
	languages   []Language
	known       map[string]bool
	defaultLang string
}

// NewPaths builds the path translator; languages keep their configured order.
func NewPaths(languages []Language, defaultLang string) *Paths {
	known := make(map[string]bool, len(languages))
	for _, l := range languages {
		known[l.Code] = true
	}
	return &Paths{languages: languages, known: known, defaultLang: defaultLang}
}

// Languages returns the configured languages in order.
func (p *Paths) Languages() []Language { return p.languages }

// DefaultLanguage returns the unprefixed language code.
func (p *Paths) DefaultLanguage() string { return p.defaultLang }

// IsLanguage reports whether code is configured.
func (p *Paths) IsLanguage(code string) bool { return p.known[code] }

// Name returns the display name for code, or code itself.
func (p *Paths) Name(code string) string {
	for _, l := range p.languages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// TranslatedPath prefixes path for lang. The default language stays unprefixed.
func (p *Paths) TranslatedPath(path, lang string) string {
	clean := ensureLeadingSlash(path)
	if lang == p.defaultLang {
		return clean
	}
	return "/" + lang + clean
}

// LangFromURL returns the language encoded in the first path segment of raw,
// or the default language. raw may be an absolute URL or a bare path.
func (p *Paths) LangFromURL(raw string) string {
	pathname := raw
	if u, err := url.Parse(raw); err == nil {
		pathname = u.Path
	}
	first, _ := splitFirst(ensureLeadingSlash(pathname))
	if p.known[first] {
		return first
	}
	return p.defaultLang
}

// StripLang removes a leading language segment. Only a whole segment matches.
func (p *Paths) StripLang(path string) string {
	clean := ensureLeadingSlash(path)
	first, rest := splitFirst(clean)
	if !p.known[first] {
		return clean
	}
	if rest == "" {
		return "/"
	}
	return rest
}

// TranslatedPaths returns the equivalent of current for every language. The
// site root maps to "/" for the default language and "/<code>" otherwise.
func (p *Paths) TranslatedPaths(current string) map[string]string {
	base := p.StripLang(current)
	out := make(map[string]string, len(p.languages))
	for _, l := range p.languages {
		switch {
		case l.Code == p.defaultLang:
			out[l.Code] = base
		case base == "/":
			out[l.Code] = "/" + l.Code
		default:
			out[l.Code] = "/" + l.Code + base
		}
	}
	return out
}

func ensureLeadingSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

// splitFirst splits "/a/b/c" into "a" and "/b/c".
func splitFirst(path string) (string, string) {
	trimmed := strings.TrimPrefix(path, "/")
	first, rest, found := strings.Cut(trimmed, "/")
	if !found {
		return first, ""
	}
	return first, "/" + rest
}
