package commands

import (
	"github.com/arthur-debert/skillpack/pkg/config"
	"github.com/arthur-debert/skillpack/pkg/errors"
)

// SinkTarget is a named sink resolved to a directory.
type SinkTarget struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// SelectSinks validates a sink selection and resolves each name. Duplicates
// are dropped; the custom sink cannot be combined with others and an
// override path needs exactly one sink.
func SelectSinks(cfg *config.Config, names []string, overridePath string) ([]SinkTarget, error) {
	seen := map[string]bool{}
	var unique []string
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		unique = append(unique, name)
	}

	if seen[config.CustomSink] && len(unique) > 1 {
		return nil, errors.New(errors.ErrInvalidInput, "custom sink cannot be combined with other sinks").
			WithHint("Run separate commands per sink when using --sink custom")
	}
	if overridePath != "" && len(unique) != 1 {
		return nil, errors.New(errors.ErrInvalidInput, "--path can only be used with a single sink").
			WithHint("Run commands separately when overriding destinations")
	}

	targets := make([]SinkTarget, 0, len(unique))
	for _, name := range unique {
		path, err := cfg.ResolveSink(name, overridePath)
		if err != nil {
			return nil, err
		}
		targets = append(targets, SinkTarget{Name: name, Path: path})
	}
	return targets, nil
}

func requireSinks(cfg *config.Config, names []string, overridePath string) ([]SinkTarget, error) {
	targets, err := SelectSinks(cfg, names, overridePath)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "no sink specified").
			WithHint("Use --sink <name>, for example --sink claude")
	}
	return targets, nil
}
