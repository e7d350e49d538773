package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/tripsite/internal/content"
	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
)

// NewCmd implements the 'new' command.
type NewCmd struct {
	Collection string `arg:"" help:"Collection: blog, groups or offers"`
	Slug       string `arg:"" help:"Slug, also used as the file name in every language"`
}

func (n *NewCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	name, err := content.ParseName(n.Collection)
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid collection").Build()
	}
	paths, err := content.Scaffold(content.ScaffoldRequest{
		Collection: name,
		Dir:        cfg.Resolve(cfg.Content.Collections[string(name)]),
		Slug:       n.Slug,
		Languages:  cfg.LanguageCodes(),
		Now:        time.Now(),
	})
	if err != nil {
		return err
	}
	for _, p := range paths {
		_, _ = fmt.Fprintln(out(g), p)
	}
	return nil
}
