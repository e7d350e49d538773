package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	Limit int `short:"n" help:"Number of builds to show" default:"10"`
}

func (s *StatusCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	builder, err := root.NewBuilder()
	if err != nil {
		return err
	}
	builds, err := builder.History(ctx, s.Limit)
	if err != nil {
		return err
	}
	w := out(g)
	if len(builds) == 0 {
		_, _ = fmt.Fprintln(w, "no builds recorded")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tREVISION\tSTARTED\tOUTCOME\tITEMS\tDURATION\tERROR")
	for _, b := range builds {
		rev := b.Revision.String()
		if rev == "" {
			rev = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			shortID(b.ID),
			rev,
			b.StartedAt.Local().Format(time.DateTime),
			b.Outcome,
			b.Items,
			b.Duration.Round(time.Millisecond),
			b.Error)
	}
	return tw.Flush()
}
