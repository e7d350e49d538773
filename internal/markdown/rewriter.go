package markdown

import (
	"path/filepath"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// DefaultAssetPrefix is the image url prefix authors use for shared assets.
const DefaultAssetPrefix = "assets/"

// AssetPathRewriter rewrites `![...](assets/...)` references so they are
// relative to the document's own directory and point into the canonical
// asset directory. It is a goldmark AST transformer; the document location
// comes from WithSourcePath and documents without one are left untouched.
type AssetPathRewriter struct {
	ProjectRoot string // absolute project root
	AssetsDir   string // asset directory, relative to ProjectRoot or absolute
	Prefix      string // recognized url prefix, DefaultAssetPrefix when empty
}

var _ parser.ASTTransformer = (*AssetPathRewriter)(nil)

// Transform implements parser.ASTTransformer.
func (r *AssetPathRewriter) Transform(doc *gmast.Document, _ text.Reader, pc parser.Context) {
	source, ok := SourcePath(pc)
	if !ok {
		return
	}
	docDir := filepath.Dir(source)
	assetsDir := r.assetsDir()
	prefix := r.prefix()

	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		img, ok := n.(*gmast.Image)
		if !ok {
			return gmast.WalkContinue, nil
		}
		if rewritten, changed := r.rewrite(string(img.Destination), docDir, assetsDir, prefix); changed {
			img.Destination = []byte(rewritten)
		}
		return gmast.WalkContinue, nil
	})
}

// Rewrite applies the rewrite rule to a single destination for a document at
// sourcePath. It reports whether the destination changed.
func (r *AssetPathRewriter) Rewrite(dest, sourcePath string) (string, bool) {
	return r.rewrite(dest, filepath.Dir(sourcePath), r.assetsDir(), r.prefix())
}

func (r *AssetPathRewriter) rewrite(dest, docDir, assetsDir, prefix string) (string, bool) {
	if !strings.HasPrefix(dest, prefix) {
		return dest, false
	}
	target := filepath.Join(assetsDir, filepath.FromSlash(strings.TrimPrefix(dest, prefix)))
	rel, err := filepath.Rel(docDir, target)
	if err != nil {
		return dest, false
	}
	return filepath.ToSlash(rel), true
}

func (r *AssetPathRewriter) assetsDir() string {
	if filepath.IsAbs(r.AssetsDir) {
		return filepath.Clean(r.AssetsDir)
	}
	return filepath.Join(r.ProjectRoot, r.AssetsDir)
}

func (r *AssetPathRewriter) prefix() string {
	if r.Prefix == "" {
		return DefaultAssetPrefix
	}
	return r.Prefix
}
