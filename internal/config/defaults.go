package config

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// Collection directory defaults mirror the site's content layout.
const (
	CollectionBlog   = "blog"
	CollectionGroups = "groups"
	CollectionOffers = "offers"
)

var defaultCollections = map[string]string{
	CollectionBlog:   "src/content/blog",
	CollectionGroups: "src/content/viajes-en-grupo",
	CollectionOffers: "src/content/ofertas",
}

type siteDefaults struct{}

func (siteDefaults) Domain() string { return "site" }

func (siteDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Viajes"
	}
	if cfg.Site.URL == "" {
		cfg.Site.URL = "https://example.com"
	}
	return nil
}

type i18nDefaults struct{}

func (i18nDefaults) Domain() string { return "i18n" }

func (i18nDefaults) ApplyDefaults(cfg *Config) error {
	if len(cfg.I18n.Languages) == 0 {
		cfg.I18n.Languages = []Language{
			{Code: "es", Name: "Español", Locale: "es-ES"},
			{Code: "en", Name: "English", Locale: "en-US"},
		}
	}
	if cfg.I18n.DefaultLanguage == "" {
		cfg.I18n.DefaultLanguage = cfg.I18n.Languages[0].Code
	}
	for i := range cfg.I18n.Languages {
		if cfg.I18n.Languages[i].Name == "" {
			cfg.I18n.Languages[i].Name = cfg.I18n.Languages[i].Code
		}
	}
	return nil
}

type contentDefaults struct{}

func (contentDefaults) Domain() string { return "content" }

func (contentDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Content.Collections == nil {
		cfg.Content.Collections = make(map[string]string, len(defaultCollections))
	}
	for name, dir := range defaultCollections {
		if cfg.Content.Collections[name] == "" {
			cfg.Content.Collections[name] = dir
		}
	}
	if cfg.Assets.Dir == "" {
		cfg.Assets.Dir = "src/assets"
	}
	if cfg.Assets.Prefix == "" {
		cfg.Assets.Prefix = "assets/"
	}
	return nil
}

type outputDefaults struct{}

func (outputDefaults) Domain() string { return "output" }

func (outputDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "dist"
		cfg.Output.Clean = true
	}
	if cfg.Build.StateDB == "" {
		cfg.Build.StateDB = ".tripsite/state.db"
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = "127.0.0.1:4321"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	} else {
		cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	}
	return nil
}

var appliers = []DefaultApplier{siteDefaults{}, i18nDefaults{}, contentDefaults{}, outputDefaults{}}

// ApplyDefaults runs every domain applier in order.
func ApplyDefaults(cfg *Config) error {
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Default returns a fully defaulted configuration rooted at root.
func Default(root string) *Config {
	cfg := &Config{Root: root}
	_ = ApplyDefaults(cfg)
	return cfg
}
