package commands

import (
	"context"
	"fmt"
)

// FeedsCmd implements the 'feeds' command.
type FeedsCmd struct {
	Output string `short:"o" help:"Override output.directory"`
}

func (f *FeedsCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	builder, err := root.NewBuilder()
	if err != nil {
		return err
	}
	if f.Output != "" {
		builder.Config().Output.Directory = f.Output
	}
	report, err := builder.Feeds(ctx)
	if err != nil {
		return err
	}
	w := out(g)
	for _, res := range report.Feeds {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d entries\n", res.Lang, res.Path, res.Items)
	}
	return nil
}
