package site

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/mmcdole/gofeed"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tripsite/internal/config"
	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
	"git.home.luguber.info/inful/tripsite/internal/metrics"
	"git.home.luguber.info/inful/tripsite/internal/state"
)

var fixedNow = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, root, rel, data string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
}

func writePNG(t *testing.T, root, rel string, w, h int) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	f, err := os.Create(p)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}

func doc(body string, fields ...string) string {
	return "---\n" + strings.Join(fields, "\n") + "\n---\n" + body
}

// newProject lays out a small bilingual site and returns a builder for it.
func newProject(t *testing.T) (*Builder, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "src/assets/roma.svg", `<svg xmlns="http://www.w3.org/2000/svg"/>`)
	writePNG(t, root, "src/assets/asturias.png", 40, 20)

	writeFile(t, root, "src/content/blog/es/roma.md", doc("\n![Coliseo](assets/roma.svg)\n\nTexto.\n",
		"title: Roma", "description: Ciudad eterna", "pubDate: 2024-11-02", "heroImage: ../../../assets/roma.svg",
		"id: roma", "tags: [Italia, Ciudades]"))
	writeFile(t, root, "src/content/blog/en/rome.md", doc("\nText.\n",
		"title: Rome", "description: Eternal city", "pubDate: 2024-11-03", "id: roma", "tags: [Italy]"))
	writeFile(t, root, "src/content/blog/es/solo.md", doc("\nSolo en español.\n",
		"title: Solo", "description: Sin traducir", "pubDate: 2024-10-01"))
	writeFile(t, root, "src/content/viajes-en-grupo/es/asturias.md", doc("\nNorte.\n",
		"title: Asturias", "description: Paraíso natural", "pubDate: 2024-09-01", "category: spain", "heroImage: asturias"))
	writeFile(t, root, "src/content/ofertas/en/deal.md", doc("\nDeal.\n",
		"title: Deal", "description: Cheap", "pubDate: 2024-08-01", "updatedDate: 2024-08-05"))

	cfg := config.Default(root)
	cfg.Site.Title = "Viajes"
	cfg.Site.Description = "Agencia"
	cfg.Site.URL = "https://viajes.example"
	b, err := NewBuilder(cfg)
	require.NoError(t, err)
	b.Now = func() time.Time { return fixedNow }
	return b, root
}

func read(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestBuild(t *testing.T) {
	b, root := newProject(t)
	reg := prom.NewRegistry()
	b.Recorder = metrics.NewPrometheusRecorder(reg)

	report, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, metrics.OutcomeSuccess, report.Outcome, "warnings: %v", report.Warnings)
	require.Equal(t, 5, report.Items)
	require.Equal(t, 2, report.Assets)
	require.True(t, report.Links.OK())
	require.NotZero(t, report.Links.Links)
	require.NotNil(t, report.Diff)
	require.Len(t, report.Diff.Added, 5)

	dist := filepath.Join(root, "dist")
	for _, rel := range []string{
		"index.html", "en/index.html",
		"blog/index.html", "en/blog/index.html",
		"blog/roma/index.html", "en/blog/rome/index.html",
		"blog/solo/index.html", "en/blog/solo/index.html",
		"viajes-en-grupo/asturias/index.html", "en/viajes-en-grupo/asturias/index.html",
		"ofertas/deal/index.html", "en/ofertas/deal/index.html",
		"tags/index.html", "tags/italia/index.html", "en/tags/italy/index.html",
		"rss.xml", "en/rss.xml",
		"_assets/roma.svg", "_assets/asturias.png",
	} {
		require.FileExists(t, filepath.Join(dist, filepath.FromSlash(rel)))
	}
	// Translated under its own slug, so no fallback copy.
	require.NoFileExists(t, filepath.Join(dist, "en", "blog", "roma", "index.html"))
	require.NoFileExists(t, filepath.Join(dist, "blog", "rome", "index.html"))
	require.NoDirExists(t, filepath.Join(dist, "en", "en"))

	roma := read(t, dist, "blog/roma/index.html")
	require.Contains(t, roma, `<html lang="es">`)
	require.Contains(t, roma, `<img src="/_assets/roma.svg" alt="Coliseo">`)
	require.Contains(t, roma, `href="/en/blog/rome/" hreflang="en"`)
	require.Contains(t, roma, `href="/tags/italia/">#Italia</a>`)
	require.Contains(t, roma, "Publicado el")
	require.Contains(t, roma, "02/11/2024")
	require.Contains(t, roma, "Todos los derechos reservados.")
	require.NotContains(t, roma, "class=\"notice\"")

	solo := read(t, dist, "en/blog/solo/index.html")
	require.Contains(t, solo, "This content has not been translated yet.")
	require.Contains(t, solo, `<article lang="es">`)
	require.Contains(t, solo, "Published on")

	deal := read(t, dist, "ofertas/deal/index.html")
	require.Contains(t, deal, "Este contenido aún no está traducido.")
	require.Contains(t, deal, "Última actualización el")

	trip := read(t, dist, "viajes-en-grupo/asturias/index.html")
	require.Contains(t, trip, "España")
	require.Contains(t, trip, `src="/_assets/asturias.png" alt="Asturias" width="40" height="20"`)
	require.Contains(t, read(t, dist, "en/viajes-en-grupo/asturias/index.html"), "Spain")

	home := read(t, dist, "en/index.html")
	require.Contains(t, home, "Latest posts")
	require.Contains(t, home, `href="/en/blog/rome/"`)
	require.Contains(t, home, `href="/" hreflang="es"`)
	require.Contains(t, read(t, dist, "index.html"), `href="/en" hreflang="en"`)

	fp := gofeed.NewParser()
	es, err := fp.ParseString(read(t, dist, "rss.xml"))
	require.NoError(t, err)
	require.Equal(t, "Viajes", es.Title)
	require.Len(t, es.Items, 2)
	require.Equal(t, "https://viajes.example/blog/roma/", es.Items[0].Link)
	en, err := fp.ParseString(read(t, dist, "en/rss.xml"))
	require.NoError(t, err)
	require.Equal(t, "Viajes - English", en.Title)
	require.Len(t, en.Items, 1)

	for _, rel := range []string{"en/blog/rome/index.html", "en", "en/rss.xml"} {
		info, err := os.Stat(filepath.Join(dist, filepath.FromSlash(rel)))
		require.NoError(t, err)
		require.NotZero(t, info.Mode().Perm()&0o044, rel)
	}

	matches, err := filepath.Glob(filepath.Join(root, ".dist.staging-*"))
	require.NoError(t, err)
	require.Empty(t, matches)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestBuild_SecondRunRecordsHistory(t *testing.T) {
	b, root := newProject(t)
	first, err := b.Build(context.Background())
	require.NoError(t, err)

	writeFile(t, root, "src/content/blog/es/solo.md", doc("\nCambiado.\n",
		"title: Solo", "description: Sin traducir", "pubDate: 2024-10-01"))
	second, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, first.BuildID, second.Diff.Previous)
	require.Equal(t, []string{"blog/es/solo"}, second.Diff.Changed)
	require.Empty(t, second.Diff.Added)

	history, err := b.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, second.BuildID, history[0].ID)
}

func TestBuild_RecordsProjectRevision(t *testing.T) {
	b, root := newProject(t)
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	w, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, w.AddGlob("."))
	hash, err := w.Commit("content", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: fixedNow},
	})
	require.NoError(t, err)

	first, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, state.Revision{Commit: hash.String()}, first.Revision)

	second, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, hash.String(), second.Revision.Commit)
	require.Equal(t, hash.String(), second.Diff.PreviousRevision.Commit)

	history, err := b.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, hash.String(), history[1].Revision.Commit)
	require.False(t, history[1].Revision.Dirty)
}

func TestBuild_StrictLinksKeepsPreviousOutput(t *testing.T) {
	b, root := newProject(t)
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	writeFile(t, root, "src/content/blog/es/roto.md", doc("\n[x](/no-existe/)\n",
		"title: Roto", "description: Enlace roto", "pubDate: 2024-12-01"))
	b.cfg.Build.StrictLinks = true

	report, err := b.Build(context.Background())
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryBuild))
	require.Equal(t, metrics.OutcomeFailed, report.Outcome)
	// The Spanish page and its English fallback both carry the link.
	require.Len(t, report.Links.Broken, 2)
	for _, broken := range report.Links.Broken {
		require.Equal(t, "/no-existe/", broken.URL)
	}
	require.NoFileExists(t, filepath.Join(root, "dist", "blog", "roto", "index.html"))
	require.FileExists(t, filepath.Join(root, "dist", "blog", "roma", "index.html"))

	matches, _ := filepath.Glob(filepath.Join(root, ".dist.staging-*"))
	require.Empty(t, matches)
}

func TestBuild_BrokenLinksWarnByDefault(t *testing.T) {
	b, root := newProject(t)
	writeFile(t, root, "src/content/blog/es/roto.md", doc("\n![x](./falta.png)\n",
		"title: Roto", "description: Imagen rota", "pubDate: 2024-12-01"))

	report, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, metrics.OutcomeWarning, report.Outcome)
	require.Len(t, report.Warnings, 1)
	require.FileExists(t, filepath.Join(root, "dist", "blog", "roto", "index.html"))
}

func TestBuild_ContentErrorsFail(t *testing.T) {
	b, root := newProject(t)
	writeFile(t, root, "src/content/blog/es/malo.md", doc("\n", "description: sin título", "pubDate: 2024-01-01"))
	writeFile(t, root, "src/content/blog/en/hero.md", doc("\n", "title: t", "description: d", "pubDate: 2024-01-01", "heroImage: nowhere.jpg"))

	report, err := b.Build(context.Background())
	require.Error(t, err)
	require.Equal(t, metrics.OutcomeFailed, report.Outcome)
	require.True(t, errors.HasCategory(err, errors.CategoryContent))
	require.Contains(t, err.Error(), "title is required")
	require.Contains(t, err.Error(), "hero image not found")
	require.Equal(t, 2, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	require.NoDirExists(t, filepath.Join(root, "dist"))
}

func TestBuild_FutureItemsSkippedWhenDisabled(t *testing.T) {
	b, root := newProject(t)
	writeFile(t, root, "src/content/blog/es/futuro.md", doc("\n", "title: Futuro", "description: d", "pubDate: 2030-01-01"))
	off := false
	b.cfg.Build.PublishFuture = &off

	report, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, report.Items)
	require.NoFileExists(t, filepath.Join(root, "dist", "blog", "futuro", "index.html"))

	on := true
	b.cfg.Build.PublishFuture = &on
	report, err = b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6, report.Items)
	require.FileExists(t, filepath.Join(root, "dist", "blog", "futuro", "index.html"))
}

func TestBuild_Canceled(t *testing.T) {
	b, _ := newProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := b.Build(ctx)
	require.Error(t, err)
	require.Equal(t, metrics.OutcomeCanceled, report.Outcome)
}

func TestFeedsOnly(t *testing.T) {
	b, root := newProject(t)
	report, err := b.Feeds(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Feeds, 2)
	require.FileExists(t, filepath.Join(root, "dist", "rss.xml"))
	require.FileExists(t, filepath.Join(root, "dist", "en", "rss.xml"))
	require.NoFileExists(t, filepath.Join(root, "dist", "index.html"))
}

func TestCheck(t *testing.T) {
	b, root := newProject(t)
	writeFile(t, root, "src/content/blog/en/gallery.md", doc("\n![a](assets/nope.png)\n![b](https://cdn.example/x.png)\n",
		"title: Gallery", "description: d", "pubDate: 2024-01-01"))

	report, err := b.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6, report.Items)
	require.Equal(t, 2, report.Assets)
	require.Empty(t, report.MissingKeys)
	require.Equal(t, []MissingImage{{Item: "blog/en/gallery", Ref: "../../../assets/nope.png"}}, report.MissingImages)
	require.False(t, report.OK())
	require.Contains(t, report.Untranslated["en"], "blog/solo")
	require.NotContains(t, report.Untranslated["en"], "blog/roma")
	require.Contains(t, report.Untranslated["es"], "offers/deal")
}

func TestNewBuilder_LocalesDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "locales/es.yaml", "nav:\n  home: Portada\n")
	cfg := config.Default(root)
	cfg.I18n.LocalesDir = "locales"

	b, err := NewBuilder(cfg)
	require.NoError(t, err)
	require.Equal(t, "Portada", b.Translator().Lookup("en", "nav.home"))

	cfg.I18n.LocalesDir = "missing"
	_, err = NewBuilder(cfg)
	require.True(t, errors.HasCategory(err, errors.CategoryI18n))
}

func TestGuardOutput(t *testing.T) {
	require.Error(t, guardOutput("/", "/srv/site"))
	require.Error(t, guardOutput("/srv/site", "/srv/site"))
	require.NoError(t, guardOutput("/srv/site/dist", "/srv/site"))

	sources := []string{"/srv/site/src/content/blog", "/srv/site/src/assets", "/srv/site/.tripsite", ""}
	for _, out := range []string{"/srv", "/srv/site/src", "/srv/site/src/content", "/srv/site/src/assets", "/srv/site/src/assets/out", "/srv/site/.tripsite"} {
		require.Error(t, guardOutput(out, "/srv/site", sources...), out)
	}
	require.NoError(t, guardOutput("/srv/site/dist", "/srv/site", sources...))
	require.NoError(t, guardOutput("/srv/site/src-out", "/srv/site", sources...))
}

func TestBuild_RefusesOutputOverSources(t *testing.T) {
	b, root := newProject(t)
	b.cfg.Output.Directory = "src"
	b.cfg.Output.Clean = true

	_, err := b.Build(context.Background())
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.FileExists(t, filepath.Join(root, "src", "content", "blog", "es", "roma.md"))
}
