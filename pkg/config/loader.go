package config

import (
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	sperrors "github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/logging"
	"github.com/arthur-debert/skillpack/pkg/paths"
)

// EnvSinkPrefix prefixes environment variables that override sinks.
const EnvSinkPrefix = "SKILLPACK_SINKS_"

// CustomSink is the sink name that requires an explicit --path.
const CustomSink = "custom"

//go:embed embedded/defaults.toml
var defaultConfig []byte

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Config is the effective configuration.
type Config struct {
	// Sinks maps sink names to absolute directories.
	Sinks map[string]string `koanf:"sinks"`
}

// Detail shows where each sink value came from.
type Detail struct {
	// Files are the user config files that were loaded.
	Files     []string          `json:"files"`
	Defaults  map[string]string `json:"defaults"`
	Overrides map[string]string `json:"overrides"`
	Effective map[string]string `json:"effective"`
}

// Config returns the effective configuration.
func (d *Detail) Config() *Config {
	return &Config{Sinks: d.Effective}
}

// Load returns the effective configuration from the given user files.
func Load(files []string) (*Config, error) {
	detail, err := LoadDetail(files)
	if err != nil {
		return nil, err
	}
	return detail.Config(), nil
}

// LoadDetail loads every layer and keeps them apart for display.
func LoadDetail(files []string) (*Detail, error) {
	log := logging.GetLogger("config")

	defaults := koanf.New(".")
	if err := defaults.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, sperrors.Wrap(err, sperrors.ErrConfigParse, "failed to load defaults")
	}

	overrides := koanf.New(".")
	var loaded []string
	for _, path := range files {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		parser := koanf.Parser(toml.Parser())
		if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
			parser = kyaml.Parser()
		}
		if err := overrides.Load(file.Provider(path), parser); err != nil {
			return nil, sperrors.Wrapf(err, sperrors.ErrConfigParse, "failed to load config from %s", path).
				WithDetail("path", path)
		}
		log.Debug().Str("path", path).Msg("Loaded user config")
		loaded = append(loaded, path)
	}

	err := overrides.Load(env.Provider(EnvSinkPrefix, ".", func(s string) string {
		return "sinks." + strings.ToLower(strings.TrimPrefix(s, EnvSinkPrefix))
	}), nil)
	if err != nil {
		return nil, sperrors.Wrap(err, sperrors.ErrConfigLoad, "failed to load env vars")
	}

	defaultCfg, err := decode(defaults)
	if err != nil {
		return nil, err
	}
	overrideCfg, err := decode(overrides)
	if err != nil {
		return nil, err
	}

	detail := &Detail{
		Files:     loaded,
		Defaults:  map[string]string{},
		Overrides: map[string]string{},
		Effective: map[string]string{},
	}
	for name, raw := range defaultCfg.Sinks {
		detail.Defaults[name] = expandPath(raw)
		detail.Effective[name] = detail.Defaults[name]
	}
	for name, raw := range overrideCfg.Sinks {
		if raw == "" {
			return nil, sperrors.Newf(sperrors.ErrConfigValid, "sink %q has an empty path", name)
		}
		detail.Overrides[name] = expandPath(raw)
		detail.Effective[name] = detail.Overrides[name]
	}
	return detail, nil
}

func decode(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, sperrors.Wrap(err, sperrors.ErrConfigParse, "failed to unmarshal configuration")
	}
	return &cfg, nil
}

func expandPath(raw string) string {
	expanded := paths.ExpandHome(raw)
	if abs, err := filepath.Abs(expanded); err == nil {
		return abs
	}
	return expanded
}

// SinkNames returns the configured sink names, sorted.
func (c *Config) SinkNames() []string {
	names := make([]string, 0, len(c.Sinks))
	for name := range c.Sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveSink maps a sink name to its directory. A non-empty overridePath
// always wins; the custom sink requires one.
func (c *Config) ResolveSink(name, overridePath string) (string, error) {
	if overridePath != "" {
		return expandPath(overridePath), nil
	}
	if name == CustomSink {
		return "", sperrors.New(sperrors.ErrSinkUnknown, "custom sink requires --path").
			WithHint("Use --path to set the destination folder")
	}
	path, ok := c.Sinks[name]
	if !ok {
		return "", sperrors.Newf(sperrors.ErrSinkUnknown, "unknown sink: %s", name).
			WithDetail("sink", name).
			WithHint("Available sinks: " + strings.Join(c.SinkNames(), ", "))
	}
	return path, nil
}
