package packs

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/paths"
	"github.com/arthur-debert/skillpack/pkg/types"
)

// Locate turns a pack argument into a file path. It tries, in order: the
// argument as a path, the argument relative to the repository root, and
// packs/<arg>.{yaml,yml,toml}.
func Locate(fsys types.FS, repoRoot, arg string) (string, error) {
	if arg == "" {
		return "", errors.New(errors.ErrInvalidInput, "pack name is required")
	}
	if exists(fsys, arg) {
		return filepath.Abs(arg)
	}
	if !filepath.IsAbs(arg) {
		candidate := filepath.Join(repoRoot, arg)
		if exists(fsys, candidate) {
			return candidate, nil
		}
	}
	if IsPackFile(arg) {
		return "", errors.Newf(errors.ErrPackNotFound, "pack file not found: %s", arg).
			WithDetail("pack", arg).
			WithHint("Check the path or run sp packs --root <repo> to list packs")
	}

	packsDir := filepath.Join(repoRoot, paths.PacksDirName)
	for _, ext := range Extensions {
		candidate := filepath.Join(packsDir, arg+ext)
		if exists(fsys, candidate) {
			return candidate, nil
		}
	}
	expected := filepath.Join(packsDir, arg+Extensions[0])
	return "", errors.Newf(errors.ErrPackNotFound, "pack not found: %s", arg).
		WithDetail("pack", arg).
		WithHint("Expected " + expected + ". Run sp packs --root <repo> to list packs")
}

func exists(fsys types.FS, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && !info.IsDir()
}

// Summary describes one pack file in packs/.
type Summary struct {
	Name string `json:"name"`
	// Path is relative to the repository root when possible.
	Path    string `json:"path"`
	Include int    `json:"include"`
	Imports int    `json:"imports"`
}

// List loads every pack file in <repoRoot>/packs, sorted by name. A missing
// packs directory yields an empty list.
func List(fsys types.FS, repoRoot string) ([]Summary, error) {
	packsDir := filepath.Join(repoRoot, paths.PacksDirName)
	entries, err := fsys.ReadDir(packsDir)
	if err != nil {
		if _, statErr := fsys.Stat(packsDir); statErr != nil {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", packsDir)
	}

	var summaries []Summary
	for _, entry := range entries {
		if entry.IsDir() || !IsPackFile(entry.Name()) || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		full := filepath.Join(packsDir, entry.Name())
		pack, err := Load(fsys, full)
		if err != nil {
			return nil, err
		}
		display := full
		if rel, err := filepath.Rel(repoRoot, full); err == nil {
			display = rel
		}
		summaries = append(summaries, Summary{
			Name:    pack.Name,
			Path:    display,
			Include: len(pack.Include),
			Imports: len(pack.Imports),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Name != summaries[j].Name {
			return summaries[i].Name < summaries[j].Name
		}
		return summaries[i].Path < summaries[j].Path
	})
	return summaries, nil
}
