package content

import (
	"sort"
	"strings"
)

// Collection holds the items of one collection ordered by ID.
type Collection struct {
	Name  Name
	Items []*Item
	byID  map[string]*Item
}

func newCollection(name Name, items []*Item) *Collection {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	c := &Collection{Name: name, Items: items, byID: make(map[string]*Item, len(items))}
	for _, it := range items {
		c.byID[it.ID] = it
	}
	return c
}

// Get returns the item with the full ID ("es/roma").
func (c *Collection) Get(id string) (*Item, bool) {
	if c == nil {
		return nil, false
	}
	it, ok := c.byID[id]
	return it, ok
}

// Fallback is the outcome of resolving a possibly missing translation.
type Fallback struct {
	Exists bool
	Lang   string // empty when Exists is false
}

// Translation is one language version of a stable id.
type Translation struct {
	Lang string
	ID   string
	Slug string
}

// Tag groups items sharing a tag. Spellings that map to the same slug are
// one tag; Name is the first spelling seen.
type Tag struct {
	Name  string
	Slug  string
	Items []*Item
}

// TagSlug lower-cases a tag and joins its words with dashes.
func TagSlug(tag string) string {
	return strings.Join(strings.Fields(strings.ToLower(tag)), "-")
}

// Set is every loaded collection plus the language fallback chains.
type Set struct {
	collections map[Name]*Collection
	chain       func(lang string) []string
}

// NewSet assembles a set; chain returns the ordered fallback languages for a
// requested language. A nil chain disables fallback.
func NewSet(items map[Name][]*Item, chain func(string) []string) *Set {
	s := &Set{collections: make(map[Name]*Collection, len(Names)), chain: chain}
	for _, n := range Names {
		s.collections[n] = newCollection(n, items[n])
	}
	for n, its := range items {
		if _, ok := s.collections[n]; !ok {
			s.collections[n] = newCollection(n, its)
		}
	}
	return s
}

// Collection returns the named collection; unknown names yield an empty one.
func (s *Set) Collection(name Name) *Collection {
	if c, ok := s.collections[name]; ok {
		return c
	}
	return newCollection(name, nil)
}

// Items returns every item of every collection in collection order.
func (s *Set) Items() []*Item {
	var out []*Item
	for _, n := range Names {
		out = append(out, s.collections[n].Items...)
	}
	return out
}

// Len is the total number of items.
func (s *Set) Len() int {
	n := 0
	for _, c := range s.collections {
		n += len(c.Items)
	}
	return n
}

// ExistsInLanguage reports whether collection holds "<lang>/<slug>".
func (s *Set) ExistsInLanguage(collection Name, slug, lang string) bool {
	_, ok := s.Collection(collection).Get(lang + "/" + slug)
	return ok
}

// ResolveFallback picks the language to render slug in: the requested one
// when present, otherwise the first language of its fallback chain that has it.
func (s *Set) ResolveFallback(collection Name, slug, requested string) Fallback {
	if s.ExistsInLanguage(collection, slug, requested) {
		return Fallback{Exists: true, Lang: requested}
	}
	if s.chain == nil {
		return Fallback{}
	}
	for _, lang := range s.chain(requested) {
		if lang == requested {
			continue
		}
		if s.ExistsInLanguage(collection, slug, lang) {
			return Fallback{Exists: true, Lang: lang}
		}
	}
	return Fallback{}
}

// AvailableTranslations lists every item of collection carrying stableID.
func (s *Set) AvailableTranslations(collection Name, stableID string) []Translation {
	stableID = strings.TrimSpace(stableID)
	if stableID == "" {
		return nil
	}
	var out []Translation
	for _, it := range s.Collection(collection).Items {
		if it.StableID() == stableID {
			out = append(out, Translation{Lang: it.Lang, ID: it.ID, Slug: it.Slug})
		}
	}
	return out
}

// ByLanguage returns the items of collection whose ID starts with "<lang>/".
func (s *Set) ByLanguage(collection Name, lang string) []*Item {
	prefix := lang + "/"
	var out []*Item
	for _, it := range s.Collection(collection).Items {
		if strings.HasPrefix(it.ID, prefix) {
			out = append(out, it)
		}
	}
	return out
}

// Slugs returns the distinct slugs of collection across all languages, sorted.
func (s *Set) Slugs(collection Name) []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range s.Collection(collection).Items {
		if !seen[it.Slug] {
			seen[it.Slug] = true
			out = append(out, it.Slug)
		}
	}
	sort.Strings(out)
	return out
}

// Tags groups the items written in lang by tag across all collections,
// sorted by tag name; items within a tag are newest first.
func (s *Set) Tags(lang string) []Tag {
	bySlug := map[string]*Tag{}
	for _, n := range Names {
		for _, it := range s.ByLanguage(n, lang) {
			for _, name := range it.Data.Tags {
				slug := TagSlug(name)
				if slug == "" {
					continue
				}
				tag, ok := bySlug[slug]
				if !ok {
					tag = &Tag{Name: strings.TrimSpace(name), Slug: slug}
					bySlug[slug] = tag
				}
				if len(tag.Items) == 0 || tag.Items[len(tag.Items)-1] != it {
					tag.Items = append(tag.Items, it)
				}
			}
		}
	}
	out := make([]Tag, 0, len(bySlug))
	for _, tag := range bySlug {
		SortNewestFirst(tag.Items)
		out = append(out, *tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Filter returns a set holding only the items keep accepts.
func (s *Set) Filter(keep func(*Item) bool) *Set {
	items := make(map[Name][]*Item, len(s.collections))
	for n, c := range s.collections {
		for _, it := range c.Items {
			if keep(it) {
				items[n] = append(items[n], it)
			}
		}
	}
	return NewSet(items, s.chain)
}
