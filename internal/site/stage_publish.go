package site

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/tripsite/internal/content"
	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
	"git.home.luguber.info/inful/tripsite/internal/linkcheck"
	"git.home.luguber.info/inful/tripsite/internal/logfields"
)

func stageFeeds(ctx context.Context, bs *buildState) error {
	set := bs.set
	if set == nil {
		set = content.NewSet(nil, nil)
	}
	results, err := bs.b.feedGenerator().WriteAll(ctx, set, bs.workDir)
	bs.report.Feeds = results
	rec := bs.recorder()
	for _, res := range results {
		rec.SetFeedItems(res.Lang, res.Items)
		slog.Debug("Wrote feed", logfields.Lang(res.Lang), logfields.Path(res.Route), logfields.Count(res.Items))
	}
	return err
}

func stageLinkCheck(ctx context.Context, bs *buildState) error {
	report, err := linkcheck.Check(ctx, bs.workDir, bs.b.cfg.Site.URL)
	if err != nil {
		return err
	}
	bs.report.Links = report
	bs.recorder().AddBrokenLinks(len(report.Broken))
	if report.OK() {
		return nil
	}
	for _, broken := range report.Broken {
		slog.Warn("Broken link",
			logfields.Path(broken.Page),
			logfields.URL(broken.URL),
			slog.String("tag", broken.Tag))
	}
	b := errors.NewError(errors.CategoryBuild, "generated site contains broken links").
		WithContext("broken", len(report.Broken)).
		WithContext("first", report.Broken[0].Page+" -> "+report.Broken[0].URL)
	if !bs.b.cfg.Build.StrictLinks {
		b = b.Warning()
	}
	return b.Build()
}

// stageState compares the rendered items with the last successful build.
// The store stays open so the run can be recorded once its outcome is known.
func stageState(ctx context.Context, bs *buildState) error {
	store, err := bs.b.openStore()
	if err != nil {
		return err
	}
	bs.store = store
	if bs.set == nil {
		return nil
	}
	diff, err := store.Diff(ctx, fingerprints(bs.set))
	if err != nil {
		return errors.WrapError(err, errors.CategoryState, "failed to diff build state").Warning().Build()
	}
	bs.report.Diff = &diff
	slog.Info("Content changes since last build",
		slog.Int("added", len(diff.Added)),
		slog.Int("changed", len(diff.Changed)),
		slog.Int("removed", len(diff.Removed)))
	return nil
}
