package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Transformer priorities; goldmark runs lower values first.
const (
	priorityRewriter = 100
	priorityLinker   = 200
)

// Options controls how Markdown is parsed and rendered.
type Options struct {
	// Rewriter, when set, rewrites `assets/` image references relative to the
	// document being parsed.
	Rewriter *AssetPathRewriter
	// Linker, when set, maps image references inside the asset directory to
	// their published URL.
	Linker *ImageLinker
}

// Renderer converts content bodies to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a GFM renderer with the configured asset transformers.
// Raw HTML in bodies is passed through: content is authored in-repo.
func NewRenderer(opts Options) *Renderer {
	var transformers []util.PrioritizedValue
	if opts.Rewriter != nil {
		transformers = append(transformers, util.Prioritized(opts.Rewriter, priorityRewriter))
	}
	if opts.Linker != nil {
		transformers = append(transformers, util.Prioritized(opts.Linker, priorityLinker))
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(transformers...),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Renderer{md: md}
}

// Render converts body to HTML. sourcePath is the absolute location of the
// document on disk; an empty path disables path-dependent rewriting.
func (r *Renderer) Render(body []byte, sourcePath string) (string, error) {
	pc := parser.NewContext()
	if sourcePath != "" {
		WithSourcePath(pc, sourcePath)
	}
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf, parser.WithContext(pc)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Parse returns the transformed AST for body; used by analysis and tests.
func (r *Renderer) Parse(body []byte, sourcePath string) gmast.Node {
	pc := parser.NewContext()
	if sourcePath != "" {
		WithSourcePath(pc, sourcePath)
	}
	return r.md.Parser().Parse(text.NewReader(body), parser.WithContext(pc))
}

// ImageDestinations lists image destinations in document order.
func ImageDestinations(root gmast.Node) []string {
	var out []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if img, ok := n.(*gmast.Image); ok && entering {
			out = append(out, string(img.Destination))
		}
		return gmast.WalkContinue, nil
	})
	return out
}
