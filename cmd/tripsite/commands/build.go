package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/tripsite/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Override output.directory"`
	StrictLinks bool   `name:"strict-links" help:"Fail the build on broken internal links"`
	NoFuture    bool   `name:"no-future" help:"Skip items dated in the future"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	builder, err := root.NewBuilder()
	if err != nil {
		return err
	}
	cfg := builder.Config()
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.StrictLinks {
		cfg.Build.StrictLinks = true
	}
	if b.NoFuture {
		off := false
		cfg.Build.PublishFuture = &off
	}

	report, err := builder.Build(ctx)
	printReport(g, report)
	return err
}

func printReport(g *Global, r *site.Report) {
	if r == nil {
		return
	}
	w := out(g)
	_, _ = fmt.Fprintf(w, "Build %s: %s in %s\n", shortID(r.BuildID), r.Outcome, r.Duration().Round(1e6))
	if !r.Succeeded() {
		return
	}
	_, _ = fmt.Fprintf(w, "  %d items, %d pages (%d fallback), %d assets\n", r.Items, r.Pages, r.Fallbacks, r.Assets)
	for _, f := range r.Feeds {
		_, _ = fmt.Fprintf(w, "  feed %s: %d entries\n", f.Route, f.Items)
	}
	if rev := r.Revision.String(); rev != "" {
		_, _ = fmt.Fprintf(w, "  revision: %s\n", rev)
	}
	if r.Diff != nil {
		_, _ = fmt.Fprintf(w, "  changes: %d added, %d changed, %d removed", len(r.Diff.Added), len(r.Diff.Changed), len(r.Diff.Removed))
		if r.Diff.Previous != "" {
			_, _ = fmt.Fprintf(w, " since %s", shortID(r.Diff.Previous))
			if prev := r.Diff.PreviousRevision.String(); prev != "" {
				_, _ = fmt.Fprintf(w, " (%s)", prev)
			}
		}
		_, _ = fmt.Fprintln(w)
	}
	for _, warn := range r.Warnings {
		_, _ = fmt.Fprintf(w, "  warning: %v\n", warn)
	}
	_, _ = fmt.Fprintf(w, "  output: %s\n", r.Output)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
