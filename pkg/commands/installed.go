package commands

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/arthur-debert/skillpack/pkg/config"
	"github.com/arthur-debert/skillpack/pkg/logging"
)

// InstalledOptions defines the options for Installed. With no sinks every
// record is listed.
type InstalledOptions struct {
	Sinks []string
	Path  string
}

// InstalledItem summarizes one install record.
type InstalledItem struct {
	Sink        string    `json:"sink"`
	Pack        string    `json:"pack"`
	SkillCount  int       `json:"skill_count"`
	InstalledAt time.Time `json:"installed_at"`
	SinkPath    string    `json:"sink_path"`
	Imports     int       `json:"imports"`
}

// InstalledResult is the output of Installed.
type InstalledResult struct {
	Installs []InstalledItem `json:"installs"`
}

// Installed lists install records, optionally filtered by sink.
func Installed(env *Env, opts InstalledOptions) (*InstalledResult, error) {
	log := logging.GetLogger("commands")
	log.Debug().Str("command", "Installed").Strs("sinks", opts.Sinks).Msg("Executing command")

	cfg, err := env.Config()
	if err != nil {
		return nil, err
	}
	filter, err := sinkFilter(env, cfg, opts)
	if err != nil {
		return nil, err
	}

	state, err := env.Store.Load()
	if err != nil {
		return nil, err
	}

	result := &InstalledResult{Installs: []InstalledItem{}}
	for _, rec := range state.Installs {
		if filter != nil && !filter[rec.SinkPath] {
			continue
		}
		result.Installs = append(result.Installs, InstalledItem{
			Sink:        rec.Sink,
			Pack:        rec.Pack,
			SkillCount:  len(rec.InstalledPaths),
			InstalledAt: rec.InstalledAt,
			SinkPath:    rec.SinkPath,
			Imports:     len(rec.Imports),
		})
	}
	sort.SliceStable(result.Installs, func(i, j int) bool {
		a, b := result.Installs[i], result.Installs[j]
		if a.Sink != b.Sink {
			return a.Sink < b.Sink
		}
		return a.Pack < b.Pack
	})

	log.Info().Str("command", "Installed").Int("recordCount", len(result.Installs)).Msg("Command finished")
	return result, nil
}

// sinkFilter returns the resolved sink paths to keep, or nil for all.
func sinkFilter(env *Env, cfg *config.Config, opts InstalledOptions) (map[string]bool, error) {
	if len(opts.Sinks) == 0 && opts.Path == "" {
		return nil, nil
	}
	names := opts.Sinks
	if len(names) == 0 {
		names = []string{config.CustomSink}
	}
	targets, err := SelectSinks(cfg, names, opts.Path)
	if err != nil {
		return nil, err
	}
	filter := map[string]bool{}
	for _, t := range targets {
		filter[t.Path] = true
		if resolved, err := env.FS.EvalSymlinks(t.Path); err == nil {
			filter[resolved] = true
		} else if abs, err := filepath.Abs(t.Path); err == nil {
			filter[abs] = true
		}
	}
	return filter, nil
}

// ConfigResult is the output of ShowConfig.
type ConfigResult struct {
	Home      string       `json:"home"`
	Files     []string     `json:"config_files"`
	Loaded    []string     `json:"loaded"`
	Defaults  []SinkTarget `json:"defaults"`
	Overrides []SinkTarget `json:"overrides"`
	Effective []SinkTarget `json:"effective"`
}

// ShowConfig reports the sink configuration layer by layer.
func ShowConfig(env *Env) (*ConfigResult, error) {
	detail, err := env.ConfigDetail()
	if err != nil {
		return nil, err
	}
	loaded := detail.Files
	if loaded == nil {
		loaded = []string{}
	}
	return &ConfigResult{
		Home:      env.Paths.Home(),
		Files:     env.Paths.ConfigFiles(),
		Loaded:    loaded,
		Defaults:  sortedSinks(detail.Defaults),
		Overrides: sortedSinks(detail.Overrides),
		Effective: sortedSinks(detail.Effective),
	}, nil
}

func sortedSinks(m map[string]string) []SinkTarget {
	out := make([]SinkTarget, 0, len(m))
	for name, path := range m {
		out = append(out, SinkTarget{Name: name, Path: path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
