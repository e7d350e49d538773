// Package commands implements the tripsite CLI subcommands.
package commands

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/tripsite/internal/config"
	"git.home.luguber.info/inful/tripsite/internal/site"
)

// LogLevelEnv overrides the configured log level.
const LogLevelEnv = "TRIPSITE_LOG_LEVEL"

var logLevel = new(slog.LevelVar)

// Global is passed to every subcommand.
type Global struct {
	// Out receives human-readable command output.
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"site.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" help:"Build the site into the output directory"`
	Feeds  FeedsCmd  `cmd:"" help:"Regenerate only the per-language RSS feeds"`
	Serve  ServeCmd  `cmd:"" help:"Build and serve the site, rebuilding on changes"`
	New    NewCmd    `cmd:"" help:"Scaffold a content item in every language"`
	Check  CheckCmd  `cmd:"" help:"Validate content, images and translations without building"`
	Status StatusCmd `cmd:"" help:"Show recent builds from the state store"`
	Init   InitCmd   `cmd:"" help:"Write a starter configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	if level, ok := c.explicitLevel(); ok {
		logLevel.Set(level)
	} else {
		logLevel.Set(slog.LevelInfo)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	return nil
}

// explicitLevel is the level forced by --verbose or the environment.
func (c *CLI) explicitLevel() (slog.Level, bool) {
	if c.Verbose {
		return slog.LevelDebug, true
	}
	if raw := strings.TrimSpace(os.Getenv(LogLevelEnv)); raw != "" {
		return config.NormalizeLogLevel(raw).SlogLevel(), true
	}
	return slog.LevelInfo, false
}

// LoadConfig loads the configuration file; its log level applies unless the
// flag or environment already chose one.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if _, ok := c.explicitLevel(); !ok {
		logLevel.Set(cfg.Logging.Level.SlogLevel())
	}
	return cfg, nil
}

// NewBuilder loads the configuration and prepares a site builder.
func (c *CLI) NewBuilder() (*site.Builder, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}
	return site.NewBuilder(cfg)
}

func out(g *Global) io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
