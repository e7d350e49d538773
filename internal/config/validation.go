package config

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
)

// Validate checks cross-field invariants after defaults are applied.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	for _, step := range []func() error{v.validateSite, v.validateLanguages, v.validateFallbacks, v.validateContent} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validateSite() error {
	u, err := url.Parse(cv.config.Site.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.ConfigError("site.url must be an absolute URL").
			WithContext("url", cv.config.Site.URL).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateLanguages() error {
	seen := make(map[string]bool, len(cv.config.I18n.Languages))
	for _, l := range cv.config.I18n.Languages {
		code := strings.TrimSpace(l.Code)
		if code == "" {
			return errors.ConfigError("language code is required").Build()
		}
		if strings.Contains(code, "/") {
			return errors.ConfigError("language code must be a single path segment").
				WithContext("code", code).
				Build()
		}
		if _, err := language.Parse(code); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "language code is not a valid BCP 47 tag").
				Fatal().
				WithContext("code", code).
				Build()
		}
		if l.Locale != "" {
			if _, err := language.Parse(l.Locale); err != nil {
				return errors.WrapError(err, errors.CategoryConfig, "language locale is not a valid BCP 47 tag").
					Fatal().
					WithContext("locale", l.Locale).
					Build()
			}
		}
		if seen[code] {
			return errors.ConfigError("duplicate language code").WithContext("code", code).Build()
		}
		seen[code] = true
	}
	if !seen[cv.config.I18n.DefaultLanguage] {
		return errors.ConfigError("default language is not configured").
			WithContext("default_language", cv.config.I18n.DefaultLanguage).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateFallbacks() error {
	codes := make(map[string]bool)
	for _, c := range cv.config.LanguageCodes() {
		codes[c] = true
	}
	for lang, chain := range cv.config.I18n.Fallbacks {
		if !codes[lang] {
			return errors.ConfigError("fallback chain for unknown language").WithContext("lang", lang).Build()
		}
		for _, fb := range chain {
			if !codes[fb] {
				return errors.ConfigError(fmt.Sprintf("fallback chain for %s references unknown language", lang)).
					WithContext("fallback", fb).
					Build()
			}
		}
	}
	return nil
}

func (cv *configurationValidator) validateContent() error {
	for name, dir := range cv.config.Content.Collections {
		if strings.TrimSpace(dir) == "" {
			return errors.ConfigError("collection directory is empty").WithContext("collection", name).Build()
		}
	}
	if !strings.HasSuffix(cv.config.Assets.Prefix, "/") {
		return errors.ConfigError("assets.prefix must end with '/'").
			WithContext("prefix", cv.config.Assets.Prefix).
			Build()
	}
	return nil
}
