package commands

import (
	"context"

	"github.com/arthur-debert/skillpack/pkg/installer"
	"github.com/arthur-debert/skillpack/pkg/logging"
	"github.com/arthur-debert/skillpack/pkg/packs"
	"github.com/arthur-debert/skillpack/pkg/statestore"
)

// InstallOptions defines the options for Install.
type InstallOptions struct {
	Pack  string
	Sinks []string
	// Path overrides the directory of the single selected sink.
	Path string
}

// SinkInstall is the outcome for one sink.
type SinkInstall struct {
	Sink           string   `json:"sink"`
	SinkPath       string   `json:"sink_path"`
	Added          int      `json:"added"`
	Updated        int      `json:"updated"`
	Removed        int      `json:"removed"`
	InstalledPaths []string `json:"installed_paths"`
}

// InstallResult is the output of Install.
type InstallResult struct {
	Pack  PackInfo      `json:"pack"`
	Sinks []SinkInstall `json:"sinks"`
}

// Install resolves a pack once and installs it into every selected sink.
// Sinks are committed one after another; a failure stops at that sink and
// leaves the sinks before it installed.
func Install(ctx context.Context, env *Env, opts InstallOptions) (*InstallResult, error) {
	log := logging.GetLogger("commands")
	log.Debug().Str("command", "Install").Str("pack", opts.Pack).Strs("sinks", opts.Sinks).Msg("Executing command")

	cfg, err := env.Config()
	if err != nil {
		return nil, err
	}
	targets, err := requireSinks(cfg, opts.Sinks, opts.Path)
	if err != nil {
		return nil, err
	}

	p, err := preparePack(ctx, env, opts.Pack)
	if err != nil {
		return nil, err
	}

	imports := make([]statestore.ImportRecord, 0, len(p.resolved.Imports))
	for _, imp := range p.resolved.Imports {
		imports = append(imports, statestore.ImportRecord{Repo: imp.Repo, Ref: imp.Ref, Commit: imp.Commit})
	}

	inst := installer.New(env.FS, env.Store)
	inst.Now = env.now

	result := &InstallResult{Pack: p.info(), Sinks: make([]SinkInstall, 0, len(targets))}
	for _, target := range targets {
		summary, err := inst.Install(ctx, installer.Request{
			Sink:     target.Name,
			SinkPath: target.Path,
			Pack:     p.pack.Name,
			PackFile: p.pack.Path,
			Plan:     p.plan,
			Imports:  imports,
		})
		if err != nil {
			return result, err
		}
		result.Sinks = append(result.Sinks, SinkInstall{
			Sink:           target.Name,
			SinkPath:       summary.SinkPath,
			Added:          len(summary.Added),
			Updated:        len(summary.Updated),
			Removed:        len(summary.Removed),
			InstalledPaths: summary.Record.InstalledPaths,
		})
	}

	log.Info().Str("command", "Install").Int("sinkCount", len(result.Sinks)).Msg("Command finished")
	return result, nil
}

// UninstallOptions defines the options for Uninstall.
type UninstallOptions struct {
	// Pack is a pack name or a pack file. A file is loaded to learn the
	// pack's name; a bare name is used as is so packs whose file is gone can
	// still be removed.
	Pack  string
	Sinks []string
	Path  string
}

// SinkUninstall is the outcome for one sink.
type SinkUninstall struct {
	Sink     string   `json:"sink"`
	SinkPath string   `json:"sink_path"`
	Removed  []string `json:"removed"`
}

// UninstallResult is the output of Uninstall.
type UninstallResult struct {
	Pack  string          `json:"pack"`
	Sinks []SinkUninstall `json:"sinks"`
}

// Uninstall removes a pack from every selected sink.
func Uninstall(ctx context.Context, env *Env, opts UninstallOptions) (*UninstallResult, error) {
	log := logging.GetLogger("commands")
	log.Debug().Str("command", "Uninstall").Str("pack", opts.Pack).Strs("sinks", opts.Sinks).Msg("Executing command")

	name, err := packName(env, opts.Pack)
	if err != nil {
		return nil, err
	}
	cfg, err := env.Config()
	if err != nil {
		return nil, err
	}
	targets, err := requireSinks(cfg, opts.Sinks, opts.Path)
	if err != nil {
		return nil, err
	}

	inst := installer.New(env.FS, env.Store)
	result := &UninstallResult{Pack: name, Sinks: make([]SinkUninstall, 0, len(targets))}
	for _, target := range targets {
		summary, err := inst.Uninstall(ctx, target.Name, target.Path, name)
		if err != nil {
			return result, err
		}
		result.Sinks = append(result.Sinks, SinkUninstall{Sink: target.Name, SinkPath: summary.SinkPath, Removed: summary.Removed})
	}

	log.Info().Str("command", "Uninstall").Int("sinkCount", len(result.Sinks)).Msg("Command finished")
	return result, nil
}

// packName maps an uninstall argument to the recorded pack name.
func packName(env *Env, arg string) (string, error) {
	if !packs.IsPackFile(arg) {
		if _, err := env.FS.Stat(arg); err != nil {
			return arg, nil
		}
	}
	path, err := packs.Locate(env.FS, env.Paths.RepoRoot(), arg)
	if err != nil {
		return "", err
	}
	pack, err := packs.Load(env.FS, path)
	if err != nil {
		return "", err
	}
	return pack.Name, nil
}
