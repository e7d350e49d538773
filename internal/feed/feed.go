// Package feed renders one RSS 2.0 feed per configured language from the
// article collection.
package feed

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/feeds"

	"git.home.luguber.info/inful/tripsite/internal/content"
	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
	"git.home.luguber.info/inful/tripsite/internal/i18n"
)

// FileName is the feed document name inside each language root.
const FileName = "rss.xml"

// Site is the channel metadata shared by every language.
type Site struct {
	Title       string
	Description string
	URL         string // absolute base URL, e.g. https://example.com
}

// Generator builds feeds for a content set.
type Generator struct {
	Site  Site
	Paths *i18n.Paths
}

// Result describes one written feed.
type Result struct {
	Lang  string
	Route string
	Path  string
	Items int
}

// Route is the public path of lang's feed: "/rss.xml" or "/<code>/rss.xml".
func (g *Generator) Route(lang string) string {
	return g.Paths.TranslatedPath("/"+FileName, lang)
}

// ItemLink is the absolute URL of an article slug in lang.
func (g *Generator) ItemLink(slug, lang string) string {
	return g.absolute(g.Paths.TranslatedPath("/"+content.Blog.Route()+"/"+slug+"/", lang))
}

// Title is the channel title for lang; non-default languages carry the
// language name.
func (g *Generator) Title(lang string) string {
	if lang == g.Paths.DefaultLanguage() {
		return g.Site.Title
	}
	return g.Site.Title + " - " + g.Paths.Name(lang)
}

// Build assembles lang's feed from the articles written in lang, newest first.
func (g *Generator) Build(set *content.Set, lang string) *feeds.Feed {
	items := set.ByLanguage(content.Blog, lang)
	sorted := make([]*content.Item, len(items))
	copy(sorted, items)
	content.SortNewestFirst(sorted)

	f := &feeds.Feed{
		Title:       g.Title(lang),
		Link:        &feeds.Link{Href: g.absolute("/")},
		Description: g.Site.Description,
	}
	for _, it := range sorted {
		link := g.ItemLink(it.Slug, lang)
		entry := &feeds.Item{
			Title:       it.Data.Title,
			Link:        &feeds.Link{Href: link},
			Description: it.Data.Description,
			Id:          link,
			Created:     it.Published(),
		}
		if updated, ok := it.Updated(); ok {
			entry.Updated = updated
		}
		f.Items = append(f.Items, entry)
	}
	if len(sorted) > 0 {
		f.Created = sorted[0].Published()
	}
	return f
}

// RSS serializes lang's feed.
func (g *Generator) RSS(set *content.Set, lang string) (string, int, error) {
	f := g.Build(set, lang)
	rss := (&feeds.Rss{Feed: f}).RssFeed()
	rss.Language = lang
	out, err := feeds.ToXML(rss)
	if err != nil {
		return "", 0, errors.WrapError(err, errors.CategoryFeed, "failed to serialize feed").
			WithContext("lang", lang).
			Build()
	}
	return out, len(f.Items), nil
}

// WriteAll writes every configured language's feed below outDir. A failure
// in any language aborts the run.
func (g *Generator) WriteAll(ctx context.Context, set *content.Set, outDir string) ([]Result, error) {
	var results []Result
	for _, l := range g.Paths.Languages() {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		doc, n, err := g.RSS(set, l.Code)
		if err != nil {
			return results, err
		}
		route := g.Route(l.Code)
		target := filepath.Join(outDir, filepath.FromSlash(strings.TrimPrefix(route, "/")))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return results, errors.FileSystemError(err, "failed to create feed directory").WithContext("path", target).Build()
		}
		// #nosec G306 -- published site files are world-readable.
		if err := os.WriteFile(target, []byte(doc), 0o644); err != nil {
			return results, errors.FileSystemError(err, "failed to write feed").WithContext("path", target).Build()
		}
		results = append(results, Result{Lang: l.Code, Route: route, Path: target, Items: n})
	}
	return results, nil
}

func (g *Generator) absolute(p string) string {
	return strings.TrimSuffix(g.Site.URL, "/") + p
}
