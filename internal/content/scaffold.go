package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
	"git.home.luguber.info/inful/tripsite/internal/frontmatter"
)

// ScaffoldRequest describes a new logical item.
type ScaffoldRequest struct {
	Collection Name
	Dir        string // absolute collection directory
	Slug       string
	Languages  []string
	Now        time.Time
}

// Scaffold writes one document per language under Dir, all sharing a fresh
// stable id. Existing files are never overwritten. It returns the paths written.
func Scaffold(req ScaffoldRequest) ([]string, error) {
	slug := strings.Trim(filepath.ToSlash(req.Slug), "/")
	if slug == "" || strings.Contains(slug, "..") {
		return nil, errors.ValidationError("invalid slug").WithContext("slug", req.Slug).Build()
	}
	if len(req.Languages) == 0 {
		return nil, errors.ValidationError("no languages configured").Build()
	}

	var targets []string
	for _, lang := range req.Languages {
		target := filepath.Join(req.Dir, lang, filepath.FromSlash(slug)+".md")
		if _, err := os.Stat(target); err == nil {
			return nil, errors.ValidationError("document already exists").WithContext("path", target).Build()
		}
		targets = append(targets, target)
	}

	stableID := uuid.NewString()
	for i, target := range targets {
		title := titleFromSlug(slug, req.Languages[i])
		fm := FrontMatter{
			Title:       title,
			Description: title,
			PubDate:     ptr(NewDate(req.Now)),
			ID:          stableID,
		}
		if req.Collection == Groups {
			fm.Category = CategorySpain
		}
		body := fmt.Sprintf("\n<!-- %s: %s -->\n", req.Languages[i], slug)
		data, err := frontmatter.Render(fm, []byte(body))
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryInternal, "failed to render front matter").Build()
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return nil, errors.FileSystemError(err, "failed to create directory").WithContext("path", target).Build()
		}
		if err := os.WriteFile(target, data, 0o600); err != nil {
			return nil, errors.FileSystemError(err, "failed to write document").WithContext("path", target).Build()
		}
	}
	return targets, nil
}

// titleFromSlug turns the last slug segment into a title cased for lang.
func titleFromSlug(slug, lang string) string {
	base := filepath.Base(filepath.FromSlash(slug))
	words := strings.FieldsFunc(base, func(r rune) bool { return r == '-' || r == '_' })
	return cases.Title(language.Make(lang)).String(strings.Join(words, " "))
}

func ptr[T any](v T) *T { return &v }
