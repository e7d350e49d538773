// Package site runs the build pipeline: it publishes assets, loads and
// validates content, renders every page in every configured language
// (falling back to another language where a translation is missing), writes
// the per-language feeds, verifies internal links and records the build.
package site

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/tripsite/internal/assets"
	"git.home.luguber.info/inful/tripsite/internal/config"
	"git.home.luguber.info/inful/tripsite/internal/content"
	"git.home.luguber.info/inful/tripsite/internal/feed"
	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
	"git.home.luguber.info/inful/tripsite/internal/i18n"
	"git.home.luguber.info/inful/tripsite/internal/logfields"
	"git.home.luguber.info/inful/tripsite/internal/markdown"
	"git.home.luguber.info/inful/tripsite/internal/metrics"
	"git.home.luguber.info/inful/tripsite/internal/state"
)

// Builder builds the site described by a configuration.
type Builder struct {
	cfg        *config.Config
	translator *i18n.Translator
	paths      *i18n.Paths

	// Recorder receives build metrics; NoopRecorder by default.
	Recorder metrics.Recorder
	// Now is the clock used for build timestamps and future-dated items.
	Now func() time.Time
}

// NewBuilder loads the translation tables and prepares a builder.
func NewBuilder(cfg *config.Config) (*Builder, error) {
	table, err := loadTable(cfg)
	if err != nil {
		return nil, err
	}
	translator, err := i18n.NewTranslator(table, cfg.I18n.DefaultLanguage)
	if err != nil {
		return nil, err
	}
	langs := make([]i18n.Language, 0, len(cfg.I18n.Languages))
	for _, l := range cfg.I18n.Languages {
		langs = append(langs, i18n.Language{Code: l.Code, Name: l.Name})
	}
	return &Builder{
		cfg:        cfg,
		translator: translator,
		paths:      i18n.NewPaths(langs, cfg.I18n.DefaultLanguage),
		Recorder:   metrics.NoopRecorder{},
		Now:        time.Now,
	}, nil
}

func loadTable(cfg *config.Config) (*i18n.Table, error) {
	if cfg.I18n.LocalesDir == "" {
		table, err := i18n.LoadEmbedded()
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryI18n, "failed to load built-in locales").Fatal().Build()
		}
		return table, nil
	}
	dir := cfg.Resolve(cfg.I18n.LocalesDir)
	table, err := i18n.LoadDir(dir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryI18n, "failed to load locales").Fatal().WithContext("dir", dir).Build()
	}
	return table, nil
}

// Config returns the builder's configuration.
func (b *Builder) Config() *config.Config { return b.cfg }

// Paths returns the language path translator.
func (b *Builder) Paths() *i18n.Paths { return b.paths }

// Translator returns the UI string lookup.
func (b *Builder) Translator() *i18n.Translator { return b.translator }

// OutputDir is the absolute output directory.
func (b *Builder) OutputDir() string { return b.cfg.Resolve(b.cfg.Output.Directory) }

// AssetsDir is the absolute canonical asset directory.
func (b *Builder) AssetsDir() string { return b.cfg.Resolve(b.cfg.Assets.Dir) }

// sourceDirs lists every directory the build reads from or keeps state in.
func (b *Builder) sourceDirs() []string {
	dirs := []string{b.AssetsDir(), filepath.Dir(b.cfg.Resolve(b.cfg.Build.StateDB))}
	for _, name := range content.Names {
		dirs = append(dirs, b.cfg.Resolve(b.cfg.Content.Collections[string(name)]))
	}
	if b.cfg.I18n.LocalesDir != "" {
		dirs = append(dirs, b.cfg.Resolve(b.cfg.I18n.LocalesDir))
	}
	return dirs
}

func (b *Builder) feedGenerator() *feed.Generator {
	return &feed.Generator{
		Site:  feed.Site{Title: b.cfg.Site.Title, Description: b.cfg.Site.Description, URL: b.cfg.Site.URL},
		Paths: b.paths,
	}
}

func (b *Builder) renderer() *markdown.Renderer {
	return markdown.NewRenderer(markdown.Options{
		Rewriter: &markdown.AssetPathRewriter{
			ProjectRoot: b.cfg.Root,
			AssetsDir:   b.cfg.Assets.Dir,
			Prefix:      b.cfg.Assets.Prefix,
		},
		Linker: &markdown.ImageLinker{
			AssetsDir: b.AssetsDir(),
			PublicDir: "/" + assets.PublicDir,
		},
	})
}

// buildState carries data between stages of one run.
type buildState struct {
	b        *Builder
	report   *Report
	outDir   string // final output directory
	workDir  string // directory stages write into
	publish  bool   // copy assets into the output
	registry *assets.Registry
	set      *content.Set
	store    *state.Store
}

func (bs *buildState) recorder() metrics.Recorder {
	if bs.b.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return bs.b.Recorder
}

// Build runs the full pipeline. The returned report is never nil; the error
// is the fatal stage error, if any.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	stages := []stageDef{
		{StagePrepareOutput, stagePrepareOutput},
		{StageAssets, stageAssets},
		{StageContent, stageContent},
		{StagePages, stagePages},
		{StageFeeds, stageFeeds},
		{StageLinkCheck, stageLinkCheck},
		{StagePromote, stagePromote},
		{StageState, stageState},
	}
	return b.run(ctx, stages, true)
}

// Feeds loads content and writes only the feeds into the output directory.
func (b *Builder) Feeds(ctx context.Context) (*Report, error) {
	stages := []stageDef{
		{StageAssets, stageAssets},
		{StageContent, stageContent},
		{StageFeeds, stageFeeds},
	}
	return b.run(ctx, stages, false)
}

func (b *Builder) run(ctx context.Context, stages []stageDef, full bool) (*Report, error) {
	start := b.Now()
	buildID := state.NewBuildID()
	out := b.OutputDir()
	bs := &buildState{
		b:       b,
		report:  newReport(buildID, start),
		outDir:  out,
		workDir: out,
		publish: full,
	}
	bs.report.Output = out
	logger := slog.With(logfields.BuildID(buildID))
	if full {
		rev, err := state.ReadRevision(b.cfg.Root)
		if err != nil {
			logger.Warn("Failed to read project revision", logfields.Error(err))
		}
		bs.report.Revision = rev
	}
	logger.Info("Build started", logfields.Path(b.cfg.Root), slog.String("revision", bs.report.Revision.String()))

	err := runStages(ctx, bs, stages)
	bs.report.finish(b.Now())
	if bs.workDir != bs.outDir && !bs.report.Succeeded() {
		_ = os.RemoveAll(bs.workDir)
	}
	if full {
		b.recordState(bs)
	}

	rec := bs.recorder()
	rec.ObserveBuildDuration(bs.report.Duration())
	rec.IncBuildOutcome(bs.report.Outcome)

	logger.Info("Build finished",
		slog.String("outcome", string(bs.report.Outcome)),
		logfields.DurationMS(float64(bs.report.Duration().Microseconds())/1000),
		logfields.Count(bs.report.Pages),
		slog.Int("items", bs.report.Items),
		slog.Int("warnings", len(bs.report.Warnings)))
	return bs.report, err
}

// recordState stores the build outcome; fingerprints only for builds that
// produced output so diffs compare against published content.
func (b *Builder) recordState(bs *buildState) {
	if bs.store == nil {
		store, err := b.openStore()
		if err != nil {
			slog.Warn("State store unavailable", logfields.Error(err))
			return
		}
		bs.store = store
	}
	defer func() { _ = bs.store.Close() }()

	rec := state.Build{
		ID:        bs.report.BuildID,
		StartedAt: bs.report.Start,
		Duration:  bs.report.Duration(),
		Outcome:   state.Outcome(bs.report.Outcome),
		Items:     bs.report.Items,
		Revision:  bs.report.Revision,
	}
	if len(bs.report.Errors) > 0 {
		rec.Error = bs.report.Errors[0].Error()
	}
	var fps []state.Fingerprint
	if bs.report.Succeeded() && bs.set != nil {
		fps = fingerprints(bs.set)
	}
	// Recording must survive a canceled build context.
	if err := bs.store.RecordBuild(context.Background(), rec, fps); err != nil {
		slog.Warn("Failed to record build", logfields.Error(err))
	}
}

func (b *Builder) openStore() (*state.Store, error) {
	path := b.cfg.Resolve(b.cfg.Build.StateDB)
	store, err := state.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryState, "failed to open state store").
			Warning().
			WithContext("path", path).
			Build()
	}
	return store, nil
}

// History returns the most recent builds from the state store.
func (b *Builder) History(ctx context.Context, limit int) ([]state.Build, error) {
	store, err := b.openStore()
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	builds, err := store.Recent(ctx, limit)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryState, "failed to read build history").Build()
	}
	return builds, nil
}

func fingerprints(set *content.Set) []state.Fingerprint {
	items := set.Items()
	out := make([]state.Fingerprint, 0, len(items))
	for _, it := range items {
		out = append(out, state.Fingerprint{Collection: string(it.Collection), ID: it.ID, Fingerprint: it.Fingerprint})
	}
	return out
}

// stagingDir is a sibling of out so the final rename stays on one filesystem.
func stagingDir(out, buildID string) string {
	return filepath.Join(filepath.Dir(out), "."+filepath.Base(out)+".staging-"+buildID[:8])
}
