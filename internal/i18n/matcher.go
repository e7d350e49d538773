package i18n

import "golang.org/x/text/language"

// Matcher negotiates an Accept-Language header against the configured
// languages. The default language wins ties and unmatched requests.
type Matcher struct {
	codes   []string
	matcher language.Matcher
}

// NewMatcher orders the default language first, as x/text uses the first tag
// as the fallback.
func NewMatcher(paths *Paths) *Matcher {
	codes := []string{paths.DefaultLanguage()}
	for _, l := range paths.Languages() {
		if l.Code != paths.DefaultLanguage() {
			codes = append(codes, l.Code)
		}
	}
	tags := make([]language.Tag, len(codes))
	for i, c := range codes {
		tags[i] = language.Make(c)
	}
	return &Matcher{codes: codes, matcher: language.NewMatcher(tags)}
}

// Match returns the best configured language code for header.
func (m *Matcher) Match(header string) string {
	prefs, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(prefs) == 0 {
		return m.codes[0]
	}
	_, idx, conf := m.matcher.Match(prefs...)
	if conf == language.No {
		return m.codes[0]
	}
	return m.codes[idx]
}
