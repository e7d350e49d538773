package content

import (
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/tripsite/internal/assets"
)

// Item is one loaded document.
type Item struct {
	Collection  Name
	ID          string // "es/roma", path below the collection dir without extension
	Lang        string // first ID segment
	Slug        string // ID without the language segment
	Data        FrontMatter
	Body        []byte
	SourcePath  string
	Hero        *assets.Asset
	Fingerprint string
}

// StableID is the cross-language identifier from front matter, possibly empty.
func (it *Item) StableID() string { return strings.TrimSpace(it.Data.ID) }

// Published is the publication date.
func (it *Item) Published() time.Time {
	if it.Data.PubDate == nil {
		return time.Time{}
	}
	return it.Data.PubDate.Time
}

// Updated returns the update date when set.
func (it *Item) Updated() (time.Time, bool) {
	if it.Data.UpdatedDate == nil {
		return time.Time{}, false
	}
	return it.Data.UpdatedDate.Time, true
}

// splitID splits "es/a/b" into "es" and "a/b".
func splitID(id string) (string, string) {
	lang, slug, found := strings.Cut(id, "/")
	if !found {
		return "", id
	}
	return lang, slug
}

// SortNewestFirst orders items by publication date, newest first, then by ID.
func SortNewestFirst(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := items[i].Published(), items[j].Published()
		if !pi.Equal(pj) {
			return pi.After(pj)
		}
		return items[i].ID < items[j].ID
	})
}
