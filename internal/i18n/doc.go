// Package i18n holds the UI translation tables, the dotted-key lookup with
// default-language fallback, and the language-prefixed URL conventions of the
// site: the default language lives at the root and every other language under
// a "/<code>" prefix.
package i18n
