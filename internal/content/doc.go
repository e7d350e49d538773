// Package content loads the site's Markdown collections (articles, group
// trips and offers), validates their front matter and answers the
// cross-language questions the page generators ask: does an item exist in a
// language, which language should stand in for a missing translation, and
// which translations share a stable id.
//
// Items live under `<collection dir>/<lang>/<slug>.md`; the item ID is the
// path below the collection directory without extension ("es/roma").
package content
