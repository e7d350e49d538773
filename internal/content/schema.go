package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"gopkg.in/yaml.v3"
)

// Name identifies a collection.
type Name string

const (
	Blog   Name = "blog"
	Groups Name = "groups"
	Offers Name = "offers"
)

// Names lists the collections in build order.
var Names = []Name{Blog, Groups, Offers}

// routes are the public URL sections, kept in the site's language (es).
var routes = map[Name]string{
	Blog:   "blog",
	Groups: "viajes-en-grupo",
	Offers: "ofertas",
}

// Route returns the URL section for the collection, e.g. "viajes-en-grupo".
func (n Name) Route() string {
	if r, ok := routes[n]; ok {
		return r
	}
	return string(n)
}

// ParseName validates a collection name.
func ParseName(s string) (Name, error) {
	for _, n := range Names {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown collection %q (valid: blog, groups, offers)", s)
}

// Group trip categories.
const (
	CategorySpain    = "spain"
	CategoryEurope   = "europe"
	CategoryLongHaul = "long-haul"
)

var categories = map[string]bool{
	CategorySpain:    true,
	CategoryEurope:   true,
	CategoryLongHaul: true,
}

// Date is a front matter date. Any common layout is accepted on input
// ("2024-03-01", "Mar 1 2024", RFC 3339, ...); output is YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date must be a scalar", node.Line)
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		return fmt.Errorf("line %d: empty date", node.Line)
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return fmt.Errorf("line %d: invalid date %q: %w", node.Line, raw, err)
	}
	d.Time = t
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Date) MarshalYAML() (any, error) {
	return d.Format("2006-01-02"), nil
}

// FrontMatter is the schema shared by all collections. Category only applies
// to group trips.
type FrontMatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	PubDate     *Date    `yaml:"pubDate"`
	UpdatedDate *Date    `yaml:"updatedDate,omitempty"`
	HeroImage   string   `yaml:"heroImage,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	ID          string   `yaml:"id,omitempty"`
	Category    string   `yaml:"category,omitempty"`
}

// Validate checks required fields for collection and returns every problem.
func (fm FrontMatter) Validate(collection Name) []string {
	var problems []string
	if strings.TrimSpace(fm.Title) == "" {
		problems = append(problems, "title is required")
	}
	if strings.TrimSpace(fm.Description) == "" {
		problems = append(problems, "description is required")
	}
	if fm.PubDate == nil {
		problems = append(problems, "pubDate is required")
	}
	if fm.PubDate != nil && fm.UpdatedDate != nil && fm.UpdatedDate.Before(fm.PubDate.Time) {
		problems = append(problems, "updatedDate is before pubDate")
	}
	for i, tag := range fm.Tags {
		switch slug := TagSlug(tag); {
		case slug == "":
			problems = append(problems, fmt.Sprintf("tags[%d] is empty", i))
		case slug == "." || slug == ".." || strings.ContainsAny(slug, `/\`):
			problems = append(problems, fmt.Sprintf("tags[%d] %q cannot be used as a path segment", i, tag))
		}
	}
	if collection == Groups && fm.Category != "" && !categories[fm.Category] {
		problems = append(problems, fmt.Sprintf("category %q is not one of spain, europe, long-haul", fm.Category))
	}
	return problems
}
