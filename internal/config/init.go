package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
)

// Init writes a starter site.yaml with every default spelled out.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	cfg := Default(".")
	cfg.Site.Title = "Viajes en Grupo"
	cfg.Site.Description = "Viajes organizados, ofertas y artículos de viaje"
	cfg.I18n.Fallbacks = map[string][]string{"en": {"es"}, "es": {"en"}}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.FileSystemError(err, "failed to write config file").WithContext("path", path).Build()
	}
	return nil
}
