package server

import (
	"sort"

	"git.home.luguber.info/inful/tripsite/internal/config"
)

// OptionsFromConfig derives server options from the serve section. Watched
// directories are the collections, the asset directory and the locales
// directory, when watching is enabled.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		Addr:           cfg.Serve.Addr,
		DetectLanguage: cfg.Serve.DetectLanguage,
		Schedule:       cfg.Serve.RebuildSchedule,
	}
	if !cfg.Serve.WatchEnabled() {
		return opts
	}
	names := make([]string, 0, len(cfg.Content.Collections))
	for name := range cfg.Content.Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts.WatchDirs = append(opts.WatchDirs, cfg.Resolve(cfg.Content.Collections[name]))
	}
	opts.WatchDirs = append(opts.WatchDirs, cfg.Resolve(cfg.Assets.Dir))
	if cfg.I18n.LocalesDir != "" {
		opts.WatchDirs = append(opts.WatchDirs, cfg.Resolve(cfg.I18n.LocalesDir))
	}
	return opts
}
