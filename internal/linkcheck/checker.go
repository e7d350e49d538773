// Package linkcheck verifies that every internal link and asset reference in
// the generated site resolves to a generated file.
package linkcheck

import (
	"context"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
)

// Broken is an internal link without a target file.
type Broken struct {
	Page string // page path relative to the output directory
	URL  string
	Tag  string
}

// Report summarizes a check run.
type Report struct {
	Pages  int
	Links  int
	Broken []Broken
}

// OK reports whether no broken links were found.
func (r Report) OK() bool { return len(r.Broken) == 0 }

// Check walks outDir and verifies internal links of every HTML page.
// siteURL is the public base URL; absolute links on its host count as internal.
func Check(ctx context.Context, outDir, siteURL string) (Report, error) {
	base, err := url.Parse(siteURL)
	if err != nil {
		return Report{}, errors.WrapError(err, errors.CategoryConfig, "invalid site url").WithContext("url", siteURL).Build()
	}

	var report Report
	err = filepath.WalkDir(outDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, err := filepath.Rel(outDir, p)
		if err != nil {
			return err
		}
		links, err := ExtractLinks(p, base)
		if err != nil {
			return err
		}
		report.Pages++
		pageURL := "/" + filepath.ToSlash(rel)
		for _, l := range links {
			if !l.IsInternal {
				continue
			}
			report.Links++
			target, ok := targetPath(l.URL, pageURL)
			if !ok {
				continue
			}
			if !exists(outDir, target) {
				report.Broken = append(report.Broken, Broken{Page: filepath.ToSlash(rel), URL: l.URL, Tag: l.Tag})
			}
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		return report, errors.WrapError(err, errors.CategoryBuild, "link check failed").WithContext("dir", outDir).Build()
	}
	sort.Slice(report.Broken, func(i, j int) bool {
		if report.Broken[i].Page != report.Broken[j].Page {
			return report.Broken[i].Page < report.Broken[j].Page
		}
		return report.Broken[i].URL < report.Broken[j].URL
	})
	return report, nil
}

// targetPath resolves link against the page's URL path and returns the
// site-absolute path without query or fragment.
func targetPath(link, pageURL string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	p := u.Path
	if p == "" {
		return "", false
	}
	if !strings.HasPrefix(p, "/") {
		p = path.Join(path.Dir(pageURL), p)
		if strings.HasSuffix(u.Path, "/") {
			p += "/"
		}
	}
	return p, true
}

// exists maps a URL path onto the output tree: directories resolve to their
// index.html.
func exists(outDir, urlPath string) bool {
	local := filepath.Join(outDir, filepath.FromSlash(strings.TrimPrefix(urlPath, "/")))
	if strings.HasSuffix(urlPath, "/") {
		return fileExists(filepath.Join(local, "index.html"))
	}
	info, err := os.Stat(local)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return fileExists(filepath.Join(local, "index.html"))
	}
	return true
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
