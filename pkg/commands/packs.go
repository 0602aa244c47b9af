package commands

import (
	"context"

	"github.com/arthur-debert/skillpack/pkg/logging"
	"github.com/arthur-debert/skillpack/pkg/packs"
	"github.com/arthur-debert/skillpack/pkg/planner"
	"github.com/arthur-debert/skillpack/pkg/resolve"
	"github.com/arthur-debert/skillpack/pkg/skills"
	"github.com/arthur-debert/skillpack/pkg/types"
)

// ListPacksResult is the output of ListPacks.
type ListPacksResult struct {
	Root  string          `json:"root"`
	Count int             `json:"count"`
	Packs []packs.Summary `json:"packs"`
}

// ListPacks lists the pack files of the repository.
func ListPacks(env *Env) (*ListPacksResult, error) {
	log := logging.GetLogger("commands")
	log.Debug().Str("command", "ListPacks").Msg("Executing command")

	summaries, err := packs.List(env.FS, env.Paths.RepoRoot())
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []packs.Summary{}
	}

	log.Info().Str("command", "ListPacks").Int("packCount", len(summaries)).Msg("Command finished")
	return &ListPacksResult{Root: env.Paths.RepoRoot(), Count: len(summaries), Packs: summaries}, nil
}

// PackInfo describes a loaded pack and its effective naming options.
type PackInfo struct {
	Name    string `json:"name"`
	File    string `json:"file"`
	Prefix  string `json:"prefix"`
	Sep     string `json:"sep"`
	Flatten bool   `json:"flatten"`
}

// ImportView is one import of a shown pack.
type ImportView struct {
	Repo   string   `json:"repo"`
	Ref    string   `json:"ref,omitempty"`
	Commit string   `json:"commit"`
	Skills []string `json:"skills"`
}

// ShowPackResult is the output of ShowPack.
type ShowPackResult struct {
	Pack    PackInfo        `json:"pack"`
	Local   []string        `json:"local"`
	Imports []ImportView    `json:"imports"`
	Entries []planner.Entry `json:"entries"`
	Names   []string        `json:"final_install_names"`
}

// prepared is a located, loaded, resolved and planned pack.
type prepared struct {
	pack     *types.Pack
	resolved *resolve.Result
	plan     *planner.Plan
}

// preparePack runs every read-only step of an install.
func preparePack(ctx context.Context, env *Env, arg string) (*prepared, error) {
	path, err := packs.Locate(env.FS, env.Paths.RepoRoot(), arg)
	if err != nil {
		return nil, err
	}
	pack, err := packs.Load(env.FS, path)
	if err != nil {
		return nil, err
	}

	r := &resolve.Resolver{FS: env.FS, RepoRoot: env.Paths.RepoRoot(), Git: env.Git}
	resolved, err := r.Resolve(ctx, pack)
	if err != nil {
		return nil, err
	}
	plan, err := planner.Build(resolved.Skills, pack.InstallOptions())
	if err != nil {
		return nil, err
	}
	return &prepared{pack: pack, resolved: resolved, plan: plan}, nil
}

func (p *prepared) info() PackInfo {
	opts := p.plan.Options
	return PackInfo{Name: p.pack.Name, File: p.pack.Path, Prefix: opts.Prefix, Sep: opts.Sep, Flatten: opts.Flatten}
}

// ShowPack resolves and plans a pack without touching any sink.
func ShowPack(ctx context.Context, env *Env, arg string) (*ShowPackResult, error) {
	log := logging.GetLogger("commands")
	log.Debug().Str("command", "ShowPack").Str("pack", arg).Msg("Executing command")

	p, err := preparePack(ctx, env, arg)
	if err != nil {
		return nil, err
	}

	result := &ShowPackResult{
		Pack:    p.info(),
		Local:   skills.IDs(p.resolved.Local),
		Imports: make([]ImportView, 0, len(p.resolved.Imports)),
		Entries: p.plan.Entries,
		Names:   p.plan.Names(),
	}
	if result.Local == nil {
		result.Local = []string{}
	}
	for _, imp := range p.resolved.Imports {
		ids := skills.IDs(imp.Skills)
		if ids == nil {
			ids = []string{}
		}
		result.Imports = append(result.Imports, ImportView{Repo: imp.Repo, Ref: imp.Ref, Commit: imp.Commit, Skills: ids})
	}

	log.Info().Str("command", "ShowPack").Int("entries", len(result.Entries)).Msg("Command finished")
	return result, nil
}
