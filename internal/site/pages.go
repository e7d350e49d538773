package site

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/tripsite/internal/assets"
	"git.home.luguber.info/inful/tripsite/internal/content"
	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
	"git.home.luguber.info/inful/tripsite/internal/markdown"
)

//go:embed templates/*.html
var templatesFS embed.FS

// pageKinds are the page templates; each is parsed together with base.html.
var pageKinds = []string{"home", "list", "item", "tags", "tag"}

// homeLatest is the number of articles listed on a home page.
const homeLatest = 6

// navKeys maps collections to their navigation label key.
var navKeys = map[content.Name]string{
	content.Blog:   "nav.blog",
	content.Groups: "nav.trips",
	content.Offers: "nav.offers",
}

type navLink struct {
	Label  string
	Href   string
	Active bool
}

type altLink struct {
	Lang    string
	Name    string
	Href    string
	Current bool
}

type heroView struct {
	Src           string
	Alt           string
	Width, Height int
}

type tagLink struct {
	Name string
	Href string
}

type itemView struct {
	Title       string
	Description string
	Href        string
	Published   time.Time
	Updated     time.Time
	Hero        *heroView
	Tags        []tagLink
	Category    string
	Body        template.HTML
	SourceLang  string
	Fallback    bool
}

type tagView struct {
	Name  string
	Href  string
	Count int
	Items []itemView
}

type pageData struct {
	SiteTitle   string
	Description string
	Lang        string
	Title       string
	Heading     string
	Path        string
	Nav         []navLink
	Alternates  []altLink
	FeedHref    string
	Year        int
	Item        *itemView
	Items       []itemView
	Tags        []tagView
	Tag         *tagView
}

type pageRenderer struct {
	bs     *buildState
	md     *markdown.Renderer
	tmpl   map[string]*template.Template
	bodies map[string]template.HTML
}

func newPageRenderer(bs *buildState) (*pageRenderer, error) {
	tr := bs.b.translator
	funcs := template.FuncMap{
		"t": tr.Lookup,
		"date": func(lang string, t time.Time) string {
			return t.Format(tr.Lookup(lang, "date.format"))
		},
		"iso": func(t time.Time) string { return t.Format("2006-01-02") },
	}
	tmpl := make(map[string]*template.Template, len(pageKinds))
	for _, kind := range pageKinds {
		t, err := template.New(kind).Funcs(funcs).ParseFS(templatesFS, "templates/base.html", "templates/"+kind+".html")
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryInternal, "failed to parse page template").WithContext("template", kind).Build()
		}
		tmpl[kind] = t
	}
	return &pageRenderer{bs: bs, md: bs.b.renderer(), tmpl: tmpl, bodies: map[string]template.HTML{}}, nil
}

func stagePages(ctx context.Context, bs *buildState) error {
	if bs.set == nil {
		return nil
	}
	r, err := newPageRenderer(bs)
	if err != nil {
		return err
	}
	for _, l := range bs.b.paths.Languages() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.renderLanguage(l.Code); err != nil {
			return err
		}
	}
	return nil
}

func (r *pageRenderer) renderLanguage(lang string) error {
	set := r.bs.set
	var latest []itemView
	for _, name := range content.Names {
		views, err := r.renderCollection(name, lang)
		if err != nil {
			return err
		}
		if name == content.Blog {
			latest = views
		}
	}
	if len(latest) > homeLatest {
		latest = latest[:homeLatest]
	}
	home := r.base(lang, "/")
	home.Items = latest
	if err := r.write("home", home); err != nil {
		return err
	}
	return r.renderTags(lang, set.Tags(lang))
}

// renderCollection writes every logical item of name in lang (using the
// fallback language where needed) and the collection index page. It returns
// the index entries, newest first.
func (r *pageRenderer) renderCollection(name content.Name, lang string) ([]itemView, error) {
	set := r.bs.set
	var items []*content.Item
	var views []itemView
	for _, slug := range set.Slugs(name) {
		fb := set.ResolveFallback(name, slug, lang)
		if !fb.Exists {
			continue
		}
		it, _ := set.Collection(name).Get(fb.Lang + "/" + slug)
		if fb.Lang != lang && hasTranslation(set, it, lang) {
			// Served under the translation's own slug.
			continue
		}
		items = append(items, it)
	}
	content.SortNewestFirst(items)

	for _, it := range items {
		view, err := r.itemView(it, lang, true)
		if err != nil {
			return nil, err
		}
		if view.Fallback {
			r.bs.report.Fallbacks++
		}
		data := r.base(lang, itemRoute(name, it.Slug))
		data.Title = it.Data.Title
		data.Description = it.Data.Description
		data.Item = &view
		data.Alternates = r.itemAlternates(it, lang)
		if err := r.write("item", data); err != nil {
			return nil, err
		}
		view.Body = ""
		views = append(views, view)
	}

	list := r.base(lang, "/"+name.Route()+"/")
	list.Title = r.bs.b.translator.Lookup(lang, navKeys[name])
	list.Heading = list.Title
	list.Items = views
	if err := r.write("list", list); err != nil {
		return nil, err
	}
	return views, nil
}

func (r *pageRenderer) renderTags(lang string, tags []content.Tag) error {
	tr := r.bs.b.translator
	index := r.base(lang, "/tags/")
	index.Title = tr.Lookup(lang, "tags.title")
	for _, tag := range tags {
		tv := tagView{Name: tag.Name, Href: r.tagHref(tag.Name, lang), Count: len(tag.Items)}
		for _, it := range tag.Items {
			view, err := r.itemView(it, lang, false)
			if err != nil {
				return err
			}
			tv.Items = append(tv.Items, view)
		}
		page := r.base(lang, "/tags/"+tag.Slug+"/")
		page.Title = tr.Lookup(lang, "tags.tag") + ": " + tag.Name
		page.Tag = &tv
		// Tags are per language; other languages link to their tag index.
		page.Alternates = r.alternates(lang, func(code string) string {
			if code == lang {
				return page.Path
			}
			return r.bs.b.paths.TranslatedPath("/tags/", code)
		})
		if err := r.write("tag", page); err != nil {
			return err
		}
		tv.Items = nil
		index.Tags = append(index.Tags, tv)
	}
	return r.write("tags", index)
}

func (r *pageRenderer) itemView(it *content.Item, lang string, withBody bool) (itemView, error) {
	tr := r.bs.b.translator
	v := itemView{
		Title:       it.Data.Title,
		Description: it.Data.Description,
		Href:        r.itemPath(it.Collection, it.Slug, lang),
		Published:   it.Published(),
		SourceLang:  it.Lang,
		Fallback:    it.Lang != lang,
	}
	if updated, ok := it.Updated(); ok {
		v.Updated = updated
	}
	if it.Hero != nil {
		v.Hero = r.hero(*it.Hero, it.Data.Title)
	}
	for _, tag := range it.Data.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		// Tag pages only list items written in their language.
		if it.Lang == lang {
			v.Tags = append(v.Tags, tagLink{Name: tag, Href: r.tagHref(tag, lang)})
		}
	}
	if it.Collection == content.Groups && it.Data.Category != "" {
		v.Category = tr.Lookup(lang, "groups.category."+it.Data.Category)
	}
	if withBody {
		body, err := r.body(it)
		if err != nil {
			return itemView{}, err
		}
		v.Body = body
	}
	return v, nil
}

func (r *pageRenderer) body(it *content.Item) (template.HTML, error) {
	key := string(it.Collection) + "/" + it.ID
	if html, ok := r.bodies[key]; ok {
		return html, nil
	}
	out, err := r.md.Render(it.Body, it.SourcePath)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryRender, "failed to render markdown").
			WithContext("item", key).
			Build()
	}
	// #nosec G203 -- bodies are authored in-repo Markdown.
	html := template.HTML(out)
	r.bodies[key] = html
	return html, nil
}

func (r *pageRenderer) hero(a assets.Asset, alt string) *heroView {
	return &heroView{
		Src:    r.bs.registry.PublicURL(a),
		Alt:    alt,
		Width:  a.Width,
		Height: a.Height,
	}
}

func (r *pageRenderer) itemPath(name content.Name, slug, lang string) string {
	return r.bs.b.paths.TranslatedPath(itemRoute(name, slug), lang)
}

// itemRoute is the unprefixed path of an item page.
func itemRoute(name content.Name, slug string) string {
	return "/" + name.Route() + "/" + slug + "/"
}

func (r *pageRenderer) tagHref(tag, lang string) string {
	return r.bs.b.paths.TranslatedPath("/tags/"+url.PathEscape(content.TagSlug(tag))+"/", lang)
}

// itemAlternates links every language to its version of it: a translation
// sharing the stable id when one exists, otherwise the same slug (served
// through fallback), otherwise the collection index.
func (r *pageRenderer) itemAlternates(it *content.Item, lang string) []altLink {
	set := r.bs.set
	byLang := map[string]string{}
	for _, t := range set.AvailableTranslations(it.Collection, it.StableID()) {
		byLang[t.Lang] = r.itemPath(it.Collection, t.Slug, t.Lang)
	}
	return r.alternates(lang, func(code string) string {
		if code == lang {
			return r.itemPath(it.Collection, it.Slug, lang)
		}
		if href, ok := byLang[code]; ok {
			return href
		}
		if set.ResolveFallback(it.Collection, it.Slug, code).Exists {
			return r.itemPath(it.Collection, it.Slug, code)
		}
		return r.bs.b.paths.TranslatedPath("/"+it.Collection.Route()+"/", code)
	})
}

func (r *pageRenderer) alternates(lang string, href func(code string) string) []altLink {
	paths := r.bs.b.paths
	out := make([]altLink, 0, len(paths.Languages()))
	for _, l := range paths.Languages() {
		out = append(out, altLink{Lang: l.Code, Name: l.Name, Href: href(l.Code), Current: l.Code == lang})
	}
	return out
}

// base fills the fields every page shares. path is the unprefixed page path.
func (r *pageRenderer) base(lang, path string) pageData {
	b := r.bs.b
	current := b.paths.TranslatedPath(path, lang)
	translated := b.paths.TranslatedPaths(current)
	data := pageData{
		SiteTitle:   b.cfg.Site.Title,
		Description: b.cfg.Site.Description,
		Lang:        lang,
		Path:        current,
		FeedHref:    b.paths.TranslatedPath("/rss.xml", lang),
		Year:        b.Now().Year(),
	}
	data.Alternates = r.alternates(lang, func(code string) string { return translated[code] })

	data.Nav = append(data.Nav, navLink{
		Label:  b.translator.Lookup(lang, "nav.home"),
		Href:   translated[lang],
		Active: path == "/",
	})
	for _, name := range content.Names {
		section := "/" + name.Route() + "/"
		data.Nav = append(data.Nav, navLink{
			Label:  b.translator.Lookup(lang, navKeys[name]),
			Href:   b.paths.TranslatedPath(section, lang),
			Active: strings.HasPrefix(path, section),
		})
	}
	data.Nav = append(data.Nav, navLink{
		Label:  b.translator.Lookup(lang, "tags.title"),
		Href:   b.paths.TranslatedPath("/tags/", lang),
		Active: strings.HasPrefix(path, "/tags/"),
	})
	return data
}

func (r *pageRenderer) write(kind string, data pageData) error {
	var buf bytes.Buffer
	if err := r.tmpl[kind].ExecuteTemplate(&buf, "base", data); err != nil {
		return errors.WrapError(err, errors.CategoryRender, "failed to render page").
			WithContext("template", kind).
			WithContext("path", data.Path).
			Build()
	}
	target := filepath.Join(r.bs.workDir, filepath.FromSlash(strings.Trim(data.Path, "/")), "index.html")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.FileSystemError(err, "failed to create page directory").WithContext("path", target).Build()
	}
	// #nosec G306 -- published site files are world-readable.
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return errors.FileSystemError(err, "failed to write page").WithContext("path", target).Build()
	}
	r.bs.report.Pages++
	return nil
}

func hasTranslation(set *content.Set, it *content.Item, lang string) bool {
	for _, t := range set.AvailableTranslations(it.Collection, it.StableID()) {
		if t.Lang == lang {
			return true
		}
	}
	return false
}

