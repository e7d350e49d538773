package markdown

import "github.com/yuin/goldmark/parser"

var sourcePathKey = parser.NewContextKey()

// WithSourcePath records the on-disk location of the document being parsed.
func WithSourcePath(pc parser.Context, path string) {
	pc.Set(sourcePathKey, path)
}

// SourcePath returns the document location recorded in pc, if any.
func SourcePath(pc parser.Context) (string, bool) {
	if pc == nil {
		return "", false
	}
	p, ok := pc.Get(sourcePathKey).(string)
	if !ok || p == "" {
		return "", false
	}
	return p, true
}
