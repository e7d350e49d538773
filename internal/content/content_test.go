package content

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tripsite/internal/assets"
	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
	"git.home.luguber.info/inful/tripsite/internal/frontmatter"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func doc(fields ...string) string {
	return "---\n" + strings.Join(fields, "\n") + "\n---\n\nCuerpo.\n"
}

type fixture struct {
	root   string
	loader *Loader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "assets", "roma.svg"), "<svg/>")
	reg, err := assets.Scan(filepath.Join(root, "assets"))
	require.NoError(t, err)

	chain := func(lang string) []string {
		if lang == "es" {
			return []string{"en"}
		}
		return []string{"es"}
	}
	return &fixture{
		root: root,
		loader: &Loader{
			Dirs: map[Name]string{
				Blog:   filepath.Join(root, "blog"),
				Groups: filepath.Join(root, "viajes-en-grupo"),
				Offers: filepath.Join(root, "ofertas"),
			},
			Languages: []string{"es", "en"},
			Assets:    reg,
			Chain:     chain,
		},
	}
}

func (f *fixture) write(t *testing.T, collectionDir, rel, content string) {
	writeFile(t, filepath.Join(f.root, collectionDir, filepath.FromSlash(rel)), content)
}

func TestLoad(t *testing.T) {
	f := newFixture(t)
	f.write(t, "blog", "es/roma.md", doc("title: Roma", "description: Ciudad eterna", "pubDate: 2024-03-01", "heroImage: ../../assets/roma.jpg", "id: roma", "tags: [italia, ciudades]"))
	f.write(t, "blog", "en/rome.mdx", doc("title: Rome", "description: Eternal city", "pubDate: Mar 2, 2024", "id: roma"))
	f.write(t, "blog", "es/_borrador.md", doc("title: x"))
	f.write(t, "blog", "es/notes.txt", "ignored")
	f.write(t, "viajes-en-grupo", "es/asturias.md", doc("title: Asturias", "description: Norte", "pubDate: 2024-05-01", "category: spain"))

	set, err := f.loader.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, set.Len())

	blog := set.Collection(Blog)
	require.Len(t, blog.Items, 2)
	require.Equal(t, "en/rome", blog.Items[0].ID)

	roma, ok := blog.Get("es/roma")
	require.True(t, ok)
	require.Equal(t, "es", roma.Lang)
	require.Equal(t, "roma", roma.Slug)
	require.Equal(t, "roma", roma.StableID())
	require.NotNil(t, roma.Hero)
	require.Equal(t, "roma.svg", roma.Hero.Name)
	require.True(t, roma.Published().Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	require.NotEmpty(t, roma.Fingerprint)
	require.Equal(t, "\nCuerpo.\n", string(roma.Body))

	rome, _ := blog.Get("en/rome")
	require.True(t, rome.Published().Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)))

	trip, ok := set.Collection(Groups).Get("es/asturias")
	require.True(t, ok)
	require.Equal(t, CategorySpain, trip.Data.Category)
	require.Empty(t, set.Collection(Offers).Items)
}

func TestLoad_AggregatesErrors(t *testing.T) {
	f := newFixture(t)
	f.write(t, "blog", "es/sin-titulo.md", doc("description: d", "pubDate: 2024-01-01"))
	f.write(t, "blog", "es/sin-imagen.md", doc("title: t", "description: d", "pubDate: 2024-01-01", "heroImage: missing.png"))
	f.write(t, "blog", "es/fecha.md", doc("title: t", "description: d", "pubDate: not a date"))
	f.write(t, "blog", "raiz.md", doc("title: t", "description: d", "pubDate: 2024-01-01"))
	f.write(t, "viajes-en-grupo", "en/x.md", doc("title: t", "description: d", "pubDate: 2024-01-01", "category: asia"))
	f.write(t, "ofertas", "es/a.md", doc("title: t", "description: d", "pubDate: 2024-01-01"))
	f.write(t, "ofertas", "es/a.mdx", doc("title: t", "description: d", "pubDate: 2024-01-01"))
	f.write(t, "ofertas", "es/abierto.md", "---\ntitle: t\n")

	_, err := f.loader.Load(context.Background())
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryContent))

	msg := err.Error()
	for _, want := range []string{
		"title is required",
		"hero image not found",
		"invalid date",
		"not inside a language directory",
		"category \"asia\"",
		"duplicate content id",
		"es/abierto.md",
	} {
		require.Contains(t, msg, want)
	}
}

func TestLoad_Cancelled(t *testing.T) {
	f := newFixture(t)
	f.write(t, "blog", "es/a.md", doc("title: t", "description: d", "pubDate: 2024-01-01"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.loader.Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func item(c Name, id, stable string, day int) *Item {
	lang, slug := splitID(id)
	d := NewDate(time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC))
	return &Item{Collection: c, ID: id, Lang: lang, Slug: slug, Data: FrontMatter{Title: id, ID: stable, PubDate: &d}}
}

func esEnChain(lang string) []string {
	if lang == "es" {
		return []string{"en"}
	}
	return []string{"es"}
}

func TestAvailableTranslations(t *testing.T) {
	set := NewSet(map[Name][]*Item{
		Blog: {item(Blog, "es/a", "X", 1), item(Blog, "en/a", "X", 1), item(Blog, "en/b", "Y", 2)},
	}, esEnChain)

	got := set.AvailableTranslations(Blog, "X")
	require.Equal(t, []Translation{{Lang: "en", ID: "en/a", Slug: "a"}, {Lang: "es", ID: "es/a", Slug: "a"}}, got)
	require.Nil(t, set.AvailableTranslations(Blog, ""))
	require.Empty(t, set.AvailableTranslations(Groups, "X"))
}

func TestResolveFallback(t *testing.T) {
	set := NewSet(map[Name][]*Item{Blog: {item(Blog, "es/a", "", 1)}}, esEnChain)

	require.Equal(t, Fallback{Exists: true, Lang: "es"}, set.ResolveFallback(Blog, "a", "en"))
	require.Equal(t, Fallback{Exists: true, Lang: "es"}, set.ResolveFallback(Blog, "a", "es"))
	require.Equal(t, Fallback{}, set.ResolveFallback(Blog, "missing", "en"))
	require.True(t, set.ExistsInLanguage(Blog, "a", "es"))
	require.False(t, set.ExistsInLanguage(Blog, "a", "en"))

	noChain := NewSet(map[Name][]*Item{Blog: {item(Blog, "es/a", "", 1)}}, nil)
	require.Equal(t, Fallback{}, noChain.ResolveFallback(Blog, "a", "en"))
}

func TestResolveFallback_OrderedChain(t *testing.T) {
	chain := func(string) []string { return []string{"fr", "en", "es"} }
	set := NewSet(map[Name][]*Item{Offers: {item(Offers, "es/x", "", 1), item(Offers, "en/x", "", 1)}}, chain)
	require.Equal(t, Fallback{Exists: true, Lang: "en"}, set.ResolveFallback(Offers, "x", "de"))
}

func TestByLanguageSlugsAndTags(t *testing.T) {
	a := item(Blog, "es/a", "", 1)
	a.Data.Tags = []string{"playa", "verano"}
	b := item(Blog, "es/b", "", 5)
	b.Data.Tags = []string{"playa"}
	c := item(Groups, "es/c", "", 3)
	c.Data.Tags = []string{"playa"}
	en := item(Blog, "en/a", "", 2)
	en.Data.Tags = []string{"beach"}
	set := NewSet(map[Name][]*Item{Blog: {a, b, en}, Groups: {c}}, esEnChain)

	require.Len(t, set.ByLanguage(Blog, "es"), 2)
	require.Len(t, set.ByLanguage(Blog, "en"), 1)
	require.Empty(t, set.ByLanguage(Blog, "e"))
	require.Equal(t, []string{"a", "b"}, set.Slugs(Blog))

	tags := set.Tags("es")
	require.Len(t, tags, 2)
	require.Equal(t, "playa", tags[0].Name)
	require.Equal(t, []*Item{b, c, a}, tags[0].Items)
	require.Equal(t, "verano", tags[1].Name)

	// Spellings sharing a slug share one tag page.
	a.Data.Tags = []string{"Verano", "verano", "playa"}
	tags = set.Tags("es")
	require.Len(t, tags, 2)
	require.Equal(t, "Verano", tags[1].Name)
	require.Equal(t, "verano", tags[1].Slug)
	require.Equal(t, []*Item{a}, tags[1].Items)

	filtered := set.Filter(func(it *Item) bool { return it.Lang == "en" })
	require.Equal(t, 1, filtered.Len())
}

func TestFrontMatterValidate(t *testing.T) {
	d := NewDate(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	earlier := NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	fm := FrontMatter{Title: "t", Description: "d", PubDate: &d, Category: "europe"}
	require.Empty(t, fm.Validate(Groups))

	fm.Category = "moon"
	require.Len(t, fm.Validate(Groups), 1)
	require.Empty(t, fm.Validate(Blog))

	fm = FrontMatter{UpdatedDate: &earlier, PubDate: &d, Tags: []string{" "}}
	require.ElementsMatch(t, []string{
		"title is required",
		"description is required",
		"updatedDate is before pubDate",
		"tags[0] is empty",
	}, fm.Validate(Blog))

	fm = FrontMatter{Title: "t", Description: "d", PubDate: &d, Tags: []string{"..", ".", "a/b", "Costa Brava"}}
	require.Len(t, fm.Validate(Blog), 3)
}

func TestTagSlug(t *testing.T) {
	require.Equal(t, "viajes-de-autor", TagSlug("  Viajes de  Autor "))
	require.Equal(t, TagSlug("Roma"), TagSlug("roma"))
}

func TestDateYAMLRoundTrip(t *testing.T) {
	var fm FrontMatter
	require.NoError(t, frontmatter.Decode([]byte("pubDate: \"2024-07-04T10:00:00Z\"\n"), &fm))
	require.Equal(t, 2024, fm.PubDate.Year())
	require.Equal(t, time.July, fm.PubDate.Month())

	out, err := frontmatter.Render(FrontMatter{Title: "t", Description: "d", PubDate: ptr(NewDate(fm.PubDate.Time))}, nil)
	require.NoError(t, err)
	require.Contains(t, string(out), "pubDate: \"2024-07-04\"")

	require.Error(t, frontmatter.Decode([]byte("pubDate: [1, 2]\n"), &fm))
}

func TestScaffold(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(f.root, "viajes-en-grupo")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	paths, err := Scaffold(ScaffoldRequest{Collection: Groups, Dir: dir, Slug: "costa-brava", Languages: []string{"es", "en"}, Now: now})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "es", "costa-brava.md"),
		filepath.Join(dir, "en", "costa-brava.md"),
	}, paths)

	set, err := f.loader.Load(context.Background())
	require.NoError(t, err)
	es, ok := set.Collection(Groups).Get("es/costa-brava")
	require.True(t, ok)
	require.Equal(t, "Costa Brava", es.Data.Title)
	require.NotEmpty(t, es.StableID())
	require.Len(t, set.AvailableTranslations(Groups, es.StableID()), 2)

	_, err = Scaffold(ScaffoldRequest{Collection: Groups, Dir: dir, Slug: "costa-brava", Languages: []string{"es"}, Now: now})
	require.Error(t, err)
	_, err = Scaffold(ScaffoldRequest{Collection: Blog, Dir: dir, Slug: "../x", Languages: []string{"es"}, Now: now})
	require.Error(t, err)
}

func TestTitleFromSlug(t *testing.T) {
	require.Equal(t, "Costa Brava", titleFromSlug("costa-brava", "es"))
	require.Equal(t, "Viaje Al Norte", titleFromSlug("2025/viaje_al-NORTE", "es"))
	require.Equal(t, "Istanbul", titleFromSlug("istanbul", "en"))
	require.Equal(t, "İstanbul", titleFromSlug("istanbul", "tr"))
}

func TestParseNameAndRoute(t *testing.T) {
	n, err := ParseName("groups")
	require.NoError(t, err)
	require.Equal(t, "viajes-en-grupo", n.Route())
	require.Equal(t, "ofertas", Offers.Route())
	_, err = ParseName("news")
	require.Error(t, err)
}
