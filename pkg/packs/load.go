// Package packs loads, validates and locates pack definition files.
//
// A pack file is YAML (.yaml, .yml) or TOML (.toml):
//
//	name: general
//	include: ["general/**"]
//	exclude: ["general/legacy"]
//	imports:
//	  - repo: github.com/acme/skills
//	    ref: main
//	    include: ["tools/*"]
//	install:
//	  prefix: general
//	  sep: "__"
//	  flatten: false
package packs

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/logging"
	"github.com/arthur-debert/skillpack/pkg/types"
)

// Extensions are the recognised pack file extensions, in lookup order.
var Extensions = []string{".yaml", ".yml", ".toml"}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// IsPackFile reports whether name has a pack file extension.
func IsPackFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads, parses and validates the pack file at path.
func Load(fsys types.FS, path string) (*types.Pack, error) {
	log := logging.GetLogger("packs")

	content, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPackNotFound, "failed to read pack file: %s", path).
			WithDetail("path", path)
	}

	pack, err := Parse(content, isTOML(path))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPackInvalid, "failed to parse pack file: %s", path).
			WithDetail("path", path)
	}
	pack.Path = path

	if err := Validate(pack); err != nil {
		return nil, err
	}

	log.Debug().Str("pack", pack.Name).Str("path", path).
		Int("includes", len(pack.Include)).Int("imports", len(pack.Imports)).
		Msg("Loaded pack")
	return pack, nil
}

// Parse decodes pack content. Unknown keys are rejected so typos surface.
func Parse(content []byte, asTOML bool) (*types.Pack, error) {
	var pack types.Pack
	if asTOML {
		dec := toml.NewDecoder(bytes.NewReader(content))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&pack); err != nil {
			return nil, err
		}
		return &pack, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&pack); err != nil {
		return nil, err
	}
	return &pack, nil
}
