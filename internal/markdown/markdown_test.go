package markdown

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func fixtureRoot(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "project")
}

func TestAssetPathRewriter_RelativeToDocument(t *testing.T) {
	root := fixtureRoot(t)
	r := NewRenderer(Options{Rewriter: &AssetPathRewriter{ProjectRoot: root, AssetsDir: "assets"}})

	src := []byte("![Mapa](assets/x/y.png)\n\n![Remote](https://cdn.example/a.png)\n\n![Local](./foto.jpg)\n")
	doc := r.Parse(src, filepath.Join(root, "content", "blog", "post.md"))

	require.Equal(t, []string{
		"../../assets/x/y.png",
		"https://cdn.example/a.png",
		"./foto.jpg",
	}, ImageDestinations(doc))
}

func TestAssetPathRewriter_DepthFollowsDocument(t *testing.T) {
	root := fixtureRoot(t)
	rw := &AssetPathRewriter{ProjectRoot: root, AssetsDir: "src/assets"}

	tests := []struct {
		source string
		want   string
	}{
		{filepath.Join(root, "src", "content", "blog", "es", "post.md"), "../../../assets/hero.webp"},
		{filepath.Join(root, "src", "post.md"), "assets/hero.webp"},
		{filepath.Join(root, "README.md"), "src/assets/hero.webp"},
	}
	for _, tt := range tests {
		got, changed := rw.Rewrite("assets/hero.webp", tt.source)
		require.True(t, changed)
		require.Equal(t, tt.want, got, tt.source)
	}
}

func TestAssetPathRewriter_NoSourceIsNoop(t *testing.T) {
	r := NewRenderer(Options{Rewriter: &AssetPathRewriter{ProjectRoot: "/p", AssetsDir: "assets"}})
	doc := r.Parse([]byte("![a](assets/y.png)"), "")
	require.Equal(t, []string{"assets/y.png"}, ImageDestinations(doc))
}

func TestAssetPathRewriter_CustomPrefix(t *testing.T) {
	rw := &AssetPathRewriter{ProjectRoot: "/p", AssetsDir: "/p/media", Prefix: "img/"}
	got, changed := rw.Rewrite("img/a.png", "/p/docs/a.md")
	require.True(t, changed)
	require.Equal(t, "../media/a.png", got)

	_, changed = rw.Rewrite("assets/a.png", "/p/docs/a.md")
	require.False(t, changed)
}

func TestImageLinker(t *testing.T) {
	l := &ImageLinker{AssetsDir: "/p/src/assets", PublicDir: "/_assets"}
	docDir := "/p/src/content/blog/es"

	got, ok := l.Link("../../../assets/x/y.png", docDir)
	require.True(t, ok)
	require.Equal(t, "/_assets/x/y.png", got)

	for _, dest := range []string{"./foto.jpg", "/static/a.png", "https://cdn.example/a.png", "", "../../../../outside.png"} {
		_, ok := l.Link(dest, docDir)
		require.False(t, ok, dest)
	}
}

func TestRenderRewritesAndLinks(t *testing.T) {
	root := fixtureRoot(t)
	assetsDir := filepath.Join(root, "src", "assets")
	r := NewRenderer(Options{
		Rewriter: &AssetPathRewriter{ProjectRoot: root, AssetsDir: "src/assets"},
		Linker:   &ImageLinker{AssetsDir: assetsDir, PublicDir: "/_assets"},
	})

	out, err := r.Render([]byte("# Roma\n\n![Coliseo](assets/roma/coliseo.jpg)\n"),
		filepath.Join(root, "src", "content", "blog", "es", "roma.md"))
	require.NoError(t, err)
	require.Contains(t, out, `<h1 id="roma">Roma</h1>`)
	require.Contains(t, out, `<img src="/_assets/roma/coliseo.jpg" alt="Coliseo">`)
}
