package markdown

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// ImageLinker maps image destinations that point (relative to the document)
// into the asset directory onto the URL the asset is published under.
// Destinations outside the asset directory, absolute paths and URLs are kept.
type ImageLinker struct {
	AssetsDir string // absolute asset directory
	PublicDir string // public path prefix, e.g. "/_assets"
}

var _ parser.ASTTransformer = (*ImageLinker)(nil)

// Transform implements parser.ASTTransformer.
func (l *ImageLinker) Transform(doc *gmast.Document, _ text.Reader, pc parser.Context) {
	source, ok := SourcePath(pc)
	if !ok {
		return
	}
	docDir := filepath.Dir(source)
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if img, ok := n.(*gmast.Image); ok && entering {
			if public, ok := l.Link(string(img.Destination), docDir); ok {
				img.Destination = []byte(public)
			}
		}
		return gmast.WalkContinue, nil
	})
}

// Link returns the public URL for dest as seen from docDir.
func (l *ImageLinker) Link(dest, docDir string) (string, bool) {
	if dest == "" || strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "#") {
		return "", false
	}
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	abs := filepath.Join(docDir, filepath.FromSlash(u.Path))
	rel, err := filepath.Rel(l.AssetsDir, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return path.Join("/", l.PublicDir, filepath.ToSlash(rel)), true
}
