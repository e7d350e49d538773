package content

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/tripsite/internal/assets"
	"git.home.luguber.info/inful/tripsite/internal/config"
	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
	"git.home.luguber.info/inful/tripsite/internal/frontmatter"
	"git.home.luguber.info/inful/tripsite/internal/logfields"
)

// Loader reads collections from disk.
type Loader struct {
	Dirs      map[Name]string // absolute collection directories
	Languages []string        // configured language codes
	Assets    *assets.Registry
	Chain     func(lang string) []string
}

// NewLoader wires a loader from site configuration.
func NewLoader(cfg *config.Config, registry *assets.Registry) *Loader {
	dirs := make(map[Name]string, len(cfg.Content.Collections))
	for name, dir := range cfg.Content.Collections {
		dirs[Name(name)] = cfg.Resolve(dir)
	}
	return &Loader{
		Dirs:      dirs,
		Languages: cfg.LanguageCodes(),
		Assets:    registry,
		Chain:     cfg.FallbackChain,
	}
}

// Load walks every collection. Problems in individual documents are collected
// and returned together so one run reports every broken file.
func (l *Loader) Load(ctx context.Context) (*Set, error) {
	items := make(map[Name][]*Item, len(l.Dirs))
	var errs []error

	for _, name := range Names {
		dir, ok := l.Dirs[name]
		if !ok {
			continue
		}
		loaded, err := l.loadCollection(ctx, name, dir)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			errs = append(errs, err)
		}
		items[name] = loaded
		slog.Debug("Loaded collection",
			logfields.Collection(string(name)),
			logfields.Path(dir),
			logfields.Count(len(loaded)))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return NewSet(items, l.Chain), nil
}

func (l *Loader) loadCollection(ctx context.Context, name Name, dir string) ([]*Item, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		slog.Debug("Collection directory missing", logfields.Collection(string(name)), logfields.Path(dir))
		return nil, nil
	}

	var items []*Item
	var errs []error
	seen := map[string]string{}

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != dir && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsContentFile(d.Name()) || isHidden(d.Name()) {
			return nil
		}
		it, err := l.LoadFile(name, dir, path)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if prev, dup := seen[it.ID]; dup {
			errs = append(errs, errors.ContentError("duplicate content id").
				WithContext("collection", string(name)).
				WithContext("id", it.ID).
				WithContext("first", prev).
				WithContext("second", path).
				Build())
			return nil
		}
		seen[it.ID] = path
		items = append(items, it)
		return nil
	})
	if walkErr != nil {
		if ctx.Err() != nil {
			return nil, walkErr
		}
		errs = append(errs, errors.FileSystemError(walkErr, "failed to walk collection").
			WithContext("collection", string(name)).
			WithContext("dir", dir).
			Build())
	}
	return items, errors.Join(errs...)
}

// LoadFile reads and validates one document of collection rooted at base.
func (l *Loader) LoadFile(collection Name, base, path string) (*Item, error) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return nil, errors.FileSystemError(err, "document outside collection").WithContext("path", path).Build()
	}
	id := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
	lang, slug := splitID(id)
	fail := func(msg string) *errors.ErrorBuilder {
		return errors.ContentError(msg).
			WithContext("collection", string(collection)).
			WithContext("id", id).
			WithContext("path", path)
	}
	if !l.knownLanguage(lang) {
		return nil, fail("document is not inside a language directory").
			WithContext("languages", strings.Join(l.Languages, ",")).
			Build()
	}

	// #nosec G304 -- path comes from walking the configured collection directory.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileSystemError(err, "failed to read document").WithContext("path", path).Build()
	}
	doc, err := frontmatter.Split(data)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "invalid front matter").
			Fatal().
			WithContext("collection", string(collection)).
			WithContext("path", path).
			Build()
	}
	if !doc.Had {
		return nil, fail("missing front matter").Build()
	}
	var fm FrontMatter
	if err := frontmatter.Decode(doc.Raw, &fm); err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "invalid front matter").
			Fatal().
			WithContext("collection", string(collection)).
			WithContext("path", path).
			Build()
	}
	if problems := fm.Validate(collection); len(problems) > 0 {
		return nil, fail("front matter does not match schema").
			WithContext("problems", strings.Join(problems, "; ")).
			Build()
	}

	it := &Item{
		Collection:  collection,
		ID:          id,
		Lang:        lang,
		Slug:        slug,
		Data:        fm,
		Body:        doc.Body,
		SourcePath:  path,
		Fingerprint: Fingerprint(doc),
	}
	if ref := strings.TrimSpace(fm.HeroImage); ref != "" {
		asset, ok := l.Assets.Resolve(ref)
		if !ok {
			return nil, fail("hero image not found").
				WithContext("heroImage", ref).
				WithContext("stem", assets.Stem(ref)).
				Build()
		}
		it.Hero = &asset
	}
	return it, nil
}

func (l *Loader) knownLanguage(lang string) bool {
	if lang == "" {
		return false
	}
	for _, code := range l.Languages {
		if code == lang {
			return true
		}
	}
	return false
}

// Fingerprint hashes the front matter block and body of a split document.
func Fingerprint(doc frontmatter.Document) string {
	fm := strings.TrimSuffix(string(doc.Raw), "\n")
	return mdfp.CalculateFingerprintFromParts(fm, string(doc.Body))
}

// IsContentFile reports whether name is a Markdown or MDX document.
func IsContentFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".mdx"
}

// isHidden matches dotfiles and underscore-prefixed drafts.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
