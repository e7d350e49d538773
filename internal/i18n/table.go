package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// Table maps a language code to its nested category/key tree of UI strings.
// A Table is not modified after loading.
type Table struct {
	langs map[string]map[string]any
}

// LoadEmbedded loads the locale files shipped with the binary.
func LoadEmbedded() (*Table, error) {
	return LoadFS(embeddedLocales, "locales")
}

// LoadDir loads `<code>.yaml` locale files from a directory on disk.
func LoadDir(dir string) (*Table, error) {
	return LoadFS(os.DirFS(dir), ".")
}

// LoadFS loads every `*.yaml` file under root; the file stem is the language code.
func LoadFS(fsys fs.FS, root string) (*Table, error) {
	paths, err := fs.Glob(fsys, path.Join(root, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob locale files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locale files found in %s", root)
	}
	sort.Strings(paths)

	t := &Table{langs: make(map[string]map[string]any, len(paths))}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", p, err)
		}
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", p, err)
		}
		code := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if tree == nil {
			tree = map[string]any{}
		}
		t.langs[code] = tree
	}
	return t, nil
}

// NewTable builds a table from in-memory trees; used by tests and tooling.
func NewTable(langs map[string]map[string]any) *Table {
	t := &Table{langs: make(map[string]map[string]any, len(langs))}
	for code, tree := range langs {
		t.langs[code] = tree
	}
	return t
}

// Has reports whether the table carries strings for lang.
func (t *Table) Has(lang string) bool {
	_, ok := t.langs[lang]
	return ok
}

// Languages returns the language codes in the table, sorted.
func (t *Table) Languages() []string {
	out := make([]string, 0, len(t.langs))
	for code := range t.langs {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Get walks the dotted key in lang. Missing segments, non-string leaves and
// empty strings all report false.
func (t *Table) Get(lang, key string) (string, bool) {
	tree, ok := t.langs[lang]
	if !ok || key == "" {
		return "", false
	}
	var node any = tree
	for _, seg := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return "", false
		}
		node, ok = m[seg]
		if !ok {
			return "", false
		}
	}
	s, ok := node.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Keys returns every dotted leaf key defined for lang, sorted.
func (t *Table) Keys(lang string) []string {
	var out []string
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			switch child := v.(type) {
			case map[string]any:
				walk(key, child)
			case string:
				out = append(out, key)
			}
		}
	}
	walk("", t.langs[lang])
	sort.Strings(out)
	return out
}
