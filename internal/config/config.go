package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
)

// Config is the parsed site.yaml.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	I18n    I18nConfig    `yaml:"i18n"`
	Content ContentConfig `yaml:"content"`
	Assets  AssetsConfig  `yaml:"assets"`
	Output  OutputConfig  `yaml:"output"`
	Build   BuildConfig   `yaml:"build"`
	Serve   ServeConfig   `yaml:"serve"`
	Logging LoggingConfig `yaml:"logging"`

	// Root is the directory containing the configuration file; relative paths
	// below resolve against it.
	Root string `yaml:"-"`
}

// SiteConfig holds channel-level metadata shared by pages and feeds.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	URL         string `yaml:"url"`
}

// Language is one configured site language.
type Language struct {
	Code   string `yaml:"code"`
	Name   string `yaml:"name"`
	Locale string `yaml:"locale,omitempty"` // BCP 47 region form, e.g. es-ES
}

// I18nConfig configures languages and translation fallbacks.
type I18nConfig struct {
	DefaultLanguage string     `yaml:"default_language"`
	Languages       []Language `yaml:"languages"`
	// Fallbacks lists, per language, the ordered languages tried when content
	// is missing. Languages without an entry fall back to every other language
	// in configuration order.
	Fallbacks  map[string][]string `yaml:"fallbacks,omitempty"`
	LocalesDir string              `yaml:"locales_dir,omitempty"`
}

// ContentConfig points each collection at its base directory.
type ContentConfig struct {
	Collections map[string]string `yaml:"collections"`
}

// AssetsConfig locates the canonical image directory.
type AssetsConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"` // recognized prefix in Markdown image urls
}

// OutputConfig controls where the generated site goes.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"`
}

// BuildConfig tunes the build pipeline.
type BuildConfig struct {
	PublishFuture *bool  `yaml:"publish_future,omitempty"`
	StrictLinks   bool   `yaml:"strict_links"`
	StateDB       string `yaml:"state_db"`
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	Addr            string `yaml:"addr"`
	DetectLanguage  bool   `yaml:"detect_language"`
	RebuildSchedule string `yaml:"rebuild_schedule,omitempty"` // cron expression
	Watch           *bool  `yaml:"watch,omitempty"`
}

// LoggingConfig selects the default log level.
type LoggingConfig struct {
	Level LogLevel `yaml:"level"`
}

// Load reads, expands, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	loadEnvFiles(filepath.Dir(path))

	// #nosec G304 -- configuration path is supplied by the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", path).
				Build()
		}
		return nil, errors.FileSystemError(err, "failed to read config file").
			WithContext("path", path).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.FileSystemError(err, "failed to resolve config directory").Build()
	}
	cfg.Root = abs
	return cfg, nil
}

// Parse decodes YAML (after ${VAR} expansion), applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	return &cfg, nil
}

// Resolve makes p absolute against the configuration root.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// LanguageCodes returns configured codes in configuration order.
func (c *Config) LanguageCodes() []string {
	out := make([]string, 0, len(c.I18n.Languages))
	for _, l := range c.I18n.Languages {
		out = append(out, l.Code)
	}
	return out
}

// FallbackChain returns the ordered fallback languages for lang, excluding lang.
func (c *Config) FallbackChain(lang string) []string {
	if chain, ok := c.I18n.Fallbacks[lang]; ok {
		out := make([]string, 0, len(chain))
		for _, l := range chain {
			if l != lang {
				out = append(out, l)
			}
		}
		return out
	}
	out := make([]string, 0, len(c.I18n.Languages))
	for _, l := range c.I18n.Languages {
		if l.Code != lang {
			out = append(out, l.Code)
		}
	}
	return out
}

// PublishFutureItems reports whether future-dated items are built.
func (b BuildConfig) PublishFutureItems() bool {
	return b.PublishFuture == nil || *b.PublishFuture
}

// WatchEnabled reports whether serve watches sources for changes.
func (s ServeConfig) WatchEnabled() bool {
	return s.Watch == nil || *s.Watch
}
