package site

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/tripsite/internal/assets"
	"git.home.luguber.info/inful/tripsite/internal/content"
	"git.home.luguber.info/inful/tripsite/internal/markdown"
)

// CheckReport is the result of validating sources without building.
type CheckReport struct {
	Items         int
	Assets        int
	MissingKeys   map[string][]string // language -> translation keys missing
	MissingImages []MissingImage
	Untranslated  map[string][]string // language -> "collection/slug" served by fallback
}

// MissingImage is a body image reference without a file behind it.
type MissingImage struct {
	Item string
	Ref  string
}

// OK reports whether the sources have no missing images or keys.
func (r CheckReport) OK() bool {
	for _, keys := range r.MissingKeys {
		if len(keys) > 0 {
			return false
		}
	}
	return len(r.MissingImages) == 0
}

// Check validates assets, content and translation tables. Content errors are
// returned as errors; missing keys and images are reported.
func (b *Builder) Check(ctx context.Context) (CheckReport, error) {
	registry, err := assets.Scan(b.AssetsDir())
	if err != nil {
		return CheckReport{}, err
	}
	set, err := content.NewLoader(b.cfg, registry).Load(ctx)
	if err != nil {
		return CheckReport{}, err
	}

	report := CheckReport{
		Items:        set.Len(),
		Assets:       registry.Len(),
		MissingKeys:  map[string][]string{},
		Untranslated: map[string][]string{},
	}
	for _, lang := range b.cfg.LanguageCodes() {
		if missing := b.translator.MissingKeys(lang); len(missing) > 0 {
			report.MissingKeys[lang] = missing
		}
		for _, name := range content.Names {
			for _, slug := range set.Slugs(name) {
				if set.ExistsInLanguage(name, slug, lang) {
					continue
				}
				fb := set.ResolveFallback(name, slug, lang)
				if it, ok := set.Collection(name).Get(fb.Lang + "/" + slug); ok && hasTranslation(set, it, lang) {
					continue
				}
				report.Untranslated[lang] = append(report.Untranslated[lang], string(name)+"/"+slug)
			}
		}
	}

	// Rewrite only: verify references on disk before they become public URLs.
	md := markdown.NewRenderer(markdown.Options{Rewriter: &markdown.AssetPathRewriter{
		ProjectRoot: b.cfg.Root,
		AssetsDir:   b.cfg.Assets.Dir,
		Prefix:      b.cfg.Assets.Prefix,
	}})
	for _, it := range set.Items() {
		docDir := filepath.Dir(it.SourcePath)
		for _, dest := range markdown.ImageDestinations(md.Parse(it.Body, it.SourcePath)) {
			local, ok := localImage(dest, docDir)
			if !ok {
				continue
			}
			if _, err := os.Stat(local); err != nil {
				report.MissingImages = append(report.MissingImages, MissingImage{
					Item: string(it.Collection) + "/" + it.ID,
					Ref:  dest,
				})
			}
		}
	}
	sort.Slice(report.MissingImages, func(i, j int) bool {
		if report.MissingImages[i].Item != report.MissingImages[j].Item {
			return report.MissingImages[i].Item < report.MissingImages[j].Item
		}
		return report.MissingImages[i].Ref < report.MissingImages[j].Ref
	})
	return report, nil
}

// localImage maps a relative image destination to a file path.
func localImage(dest, docDir string) (string, bool) {
	if dest == "" || strings.HasPrefix(dest, "/") {
		return "", false
	}
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	return filepath.Join(docDir, filepath.FromSlash(u.Path)), true
}
