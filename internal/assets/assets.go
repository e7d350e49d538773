// Package assets discovers the site's image directory and resolves short
// logical image names ("foo", "assets/foo.png") to concrete files.
package assets

import (
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/webp" // register decoder

	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
)

// PublicDir is the output sub-directory images are published under.
const PublicDir = "_assets"

// imageExtensions lists the formats picked up by Scan.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".svg":  true,
	".gif":  true,
}

// Asset is one discovered image file.
type Asset struct {
	Name   string // file name, e.g. "lisboa.webp"
	Path   string // absolute path on disk
	Stem   string // name without extension, the lookup key
	Format string // lower-case extension without the dot
	Width  int
	Height int
}

// Registry maps stems to assets. It is immutable once built by Scan.
type Registry struct {
	dir    string
	order  []Asset
	byStem map[string]int
}

// Scan lists dir (non-recursively) and registers every image it finds, in
// lexical order. Two files sharing a stem ("foo.png", "foo.webp") make the
// registry ambiguous and are rejected.
func Scan(dir string) (*Registry, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.FileSystemError(err, "failed to resolve asset directory").WithContext("dir", dir).Build()
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return &Registry{dir: abs, byStem: map[string]int{}}, nil
		}
		return nil, errors.FileSystemError(err, "failed to list asset directory").WithContext("dir", abs).Build()
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	reg := &Registry{dir: abs, byStem: make(map[string]int, len(entries))}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !imageExtensions[ext] {
			continue
		}
		a := Asset{
			Name:   e.Name(),
			Path:   filepath.Join(abs, e.Name()),
			Stem:   Stem(e.Name()),
			Format: strings.TrimPrefix(ext, "."),
		}
		if a.Stem == "" {
			continue
		}
		if idx, dup := reg.byStem[a.Stem]; dup {
			return nil, errors.NewError(errors.CategoryAsset, "duplicate image stem").
				Fatal().
				WithContext("stem", a.Stem).
				WithContext("first", reg.order[idx].Name).
				WithContext("second", a.Name).
				Build()
		}
		a.Width, a.Height = dimensions(a.Path, a.Format)
		reg.byStem[a.Stem] = len(reg.order)
		reg.order = append(reg.order, a)
	}
	return reg, nil
}

// Stem reduces an image reference to its lookup key: directory components
// and everything from the first '.' of the file name are dropped.
func Stem(ref string) string {
	ref = strings.ReplaceAll(ref, "\\", "/")
	name := path.Base(ref)
	if name == "." || name == "/" {
		return ""
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

// Resolve returns the asset registered for ref's stem.
func (r *Registry) Resolve(ref string) (Asset, bool) {
	if r == nil || strings.TrimSpace(ref) == "" {
		return Asset{}, false
	}
	idx, ok := r.byStem[Stem(ref)]
	if !ok {
		return Asset{}, false
	}
	return r.order[idx], true
}

// Assets returns every asset in discovery order.
func (r *Registry) Assets() []Asset {
	if r == nil {
		return nil
	}
	out := make([]Asset, len(r.order))
	copy(out, r.order)
	return out
}

// Dir is the absolute directory the registry was built from.
func (r *Registry) Dir() string { return r.dir }

// Len reports the number of registered assets.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// PublicURL is the site path the asset is served from after Publish.
func (r *Registry) PublicURL(a Asset) string {
	return "/" + PublicDir + "/" + a.Name
}

// dimensions reads only the image header. SVG and undecodable files report 0x0.
func dimensions(p, format string) (int, int) {
	if format == "svg" {
		return 0, 0
	}
	// #nosec G304 -- path comes from listing the configured asset directory.
	f, err := os.Open(p)
	if err != nil {
		return 0, 0
	}
	defer func() { _ = f.Close() }()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
