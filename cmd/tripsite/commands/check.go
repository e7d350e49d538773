package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct{}

func (c *CheckCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	builder, err := root.NewBuilder()
	if err != nil {
		return err
	}
	report, err := builder.Check(ctx)
	if err != nil {
		return err
	}

	w := out(g)
	_, _ = fmt.Fprintf(w, "%d items, %d assets\n", report.Items, report.Assets)
	for _, lang := range sortedKeys(report.MissingKeys) {
		_, _ = fmt.Fprintf(w, "missing translations (%s): %s\n", lang, strings.Join(report.MissingKeys[lang], ", "))
	}
	for _, img := range report.MissingImages {
		_, _ = fmt.Fprintf(w, "missing image in %s: %s\n", img.Item, img.Ref)
	}
	for _, lang := range sortedKeys(report.Untranslated) {
		_, _ = fmt.Fprintf(w, "served by fallback in %s: %s\n", lang, strings.Join(report.Untranslated[lang], ", "))
	}
	if !report.OK() {
		return errors.ValidationError("site sources have problems").
			WithContext("missing_images", len(report.MissingImages)).
			Build()
	}
	_, _ = fmt.Fprintln(w, "ok")
	return nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
