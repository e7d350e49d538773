package site

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/tripsite/internal/assets"
	"git.home.luguber.info/inful/tripsite/internal/content"
	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
	"git.home.luguber.info/inful/tripsite/internal/logfields"
)

func stageAssets(_ context.Context, bs *buildState) error {
	dir := bs.b.AssetsDir()
	registry, err := assets.Scan(dir)
	if err != nil {
		return err
	}
	bs.registry = registry
	if !bs.publish {
		return nil
	}
	n, err := assets.Publish(dir, bs.workDir)
	if err != nil {
		return err
	}
	bs.report.Assets = n
	slog.Debug("Published assets", logfields.Path(dir), logfields.Count(n))
	return nil
}

func stageContent(ctx context.Context, bs *buildState) error {
	cfg := bs.b.cfg
	set, err := content.NewLoader(cfg, bs.registry).Load(ctx)
	if err != nil {
		return err
	}
	if !cfg.Build.PublishFutureItems() {
		now := bs.b.Now()
		before := set.Len()
		set = set.Filter(func(it *content.Item) bool { return !it.Published().After(now) })
		if skipped := before - set.Len(); skipped > 0 {
			slog.Info("Skipped future-dated items", logfields.Count(skipped))
		}
	}
	bs.set = set
	bs.report.Items = set.Len()

	rec := bs.recorder()
	for _, name := range content.Names {
		for _, lang := range cfg.LanguageCodes() {
			rec.SetContentItems(string(name), lang, len(set.ByLanguage(name, lang)))
		}
	}
	if set.Len() == 0 {
		return errors.ContentError("no content found").
			Warning().
			WithContext("root", cfg.Root).
			Build()
	}
	return nil
}
