// Package resolve turns a pack definition into the concrete set of skills it
// selects: local matches plus every import's matches, minus the pack-level
// excludes.
package resolve

import (
	"context"
	"sort"

	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/gitsource"
	"github.com/arthur-debert/skillpack/pkg/logging"
	"github.com/arthur-debert/skillpack/pkg/patterns"
	"github.com/arthur-debert/skillpack/pkg/skills"
	"github.com/arthur-debert/skillpack/pkg/types"
)

// ImportResult is the sub-selection contributed by one import.
type ImportResult struct {
	Repo   string        `json:"repo"`
	Ref    string        `json:"ref,omitempty"`
	Commit string        `json:"commit"`
	Skills []types.Skill `json:"skills"`
}

// Result is a resolved pack.
type Result struct {
	Pack    *types.Pack    `json:"-"`
	Local   []types.Skill  `json:"local"`
	Imports []ImportResult `json:"imports"`
	// Skills is the final selection.
	Skills []types.Skill `json:"skills"`
}

// Resolver resolves packs against a repository and a git source.
type Resolver struct {
	FS       types.FS
	RepoRoot string
	Git      gitsource.Materializer
}

type compiledImport struct {
	source  types.Import
	include patterns.Set
	exclude patterns.Set
}

// Resolve selects the skills of pack. Resolution is read-only: it never
// touches a sink.
func (r *Resolver) Resolve(ctx context.Context, pack *types.Pack) (*Result, error) {
	log := logging.GetLogger("resolve").With().Str("pack", pack.Name).Logger()
	done := logging.LogOperationStart(log, "resolve")
	defer done()

	if pack.IsEmpty() {
		return nil, errors.Newf(errors.ErrPackInvalid, "pack %s must include local skills or imports", pack.Name).
			WithDetail("pack", pack.Name).
			WithHint("Add include: or imports: to the pack file")
	}

	// Compile everything up front so syntax errors surface before any
	// discovery or network access.
	include, err := patterns.ParseSet(pack.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := patterns.ParseSet(pack.Exclude)
	if err != nil {
		return nil, err
	}
	imports := make([]compiledImport, 0, len(pack.Imports))
	for _, imp := range pack.Imports {
		if len(imp.Include) == 0 {
			return nil, errors.Newf(errors.ErrPackInvalid, "import include must be non-empty: %s", imp.Repo).
				WithDetail("repo", imp.Repo).
				WithHint("Add include: patterns under the import")
		}
		ci := compiledImport{source: imp}
		if ci.include, err = patterns.ParseSet(imp.Include); err != nil {
			return nil, err
		}
		if ci.exclude, err = patterns.ParseSet(imp.Exclude); err != nil {
			return nil, err
		}
		imports = append(imports, ci)
	}

	result := &Result{Pack: pack}

	if len(include) > 0 {
		local, err := skills.DiscoverLocal(r.FS, r.RepoRoot)
		if err != nil {
			return nil, err
		}
		if result.Local, err = SelectIncluded(local, include, "local include"); err != nil {
			return nil, err
		}
	}

	for _, imp := range imports {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCancelled, "resolution cancelled")
		}
		sub, err := r.resolveImport(ctx, imp)
		if err != nil {
			return nil, err
		}
		result.Imports = append(result.Imports, *sub)
	}

	union := result.Local
	for _, imp := range result.Imports {
		union = Union(union, imp.Skills)
	}
	result.Skills = ApplyExcludes(union, exclude)

	log.Info().Int("local", len(result.Local)).Int("imports", len(result.Imports)).
		Int("selected", len(result.Skills)).Msg("Resolved pack")
	return result, nil
}

func (r *Resolver) resolveImport(ctx context.Context, imp compiledImport) (*ImportResult, error) {
	if r.Git == nil {
		return nil, errors.Newf(errors.ErrInternal, "no git source configured for import %s", imp.source.Repo)
	}
	tree, err := r.Git.Materialize(ctx, imp.source.Repo, imp.source.Ref)
	if err != nil {
		return nil, err
	}

	origin := types.RemoteOrigin(imp.source.Repo, imp.source.Ref, tree.Commit)
	found, err := skills.Discover(r.FS, tree.Root, skills.ModeRemote, origin)
	if err != nil {
		return nil, err
	}
	selected, err := SelectIncluded(found, imp.include, "import include ("+imp.source.Repo+")")
	if err != nil {
		return nil, err
	}
	return &ImportResult{
		Repo:   imp.source.Repo,
		Ref:    imp.source.Ref,
		Commit: tree.Commit,
		Skills: ApplyExcludes(selected, imp.exclude),
	}, nil
}

// SelectIncluded returns the skills matched by any include pattern. Every
// pattern must match at least one skill; the first that matches none fails
// the selection.
func SelectIncluded(all []types.Skill, include patterns.Set, label string) ([]types.Skill, error) {
	counts := include.MatchCounts(skills.IDs(all))
	for i, count := range counts {
		if count == 0 {
			pat := include[i].String()
			return nil, errors.Newf(errors.ErrPatternNoMatch, "%s pattern matched zero skills: %s", label, pat).
				WithDetail("pattern", pat).
				WithHint("Check patterns or run sp skills to list IDs")
		}
	}

	var selected []types.Skill
	for _, s := range all {
		if include.MatchAny(s.ID) {
			selected = append(selected, s)
		}
	}
	sortSkills(selected)
	return selected, nil
}

// ApplyExcludes drops every skill whose id matches an exclude pattern.
func ApplyExcludes(in []types.Skill, exclude patterns.Set) []types.Skill {
	out := make([]types.Skill, 0, len(in))
	for _, s := range in {
		if !exclude.MatchAny(s.ID) {
			out = append(out, s)
		}
	}
	return out
}

// Union merges b into a, keeping one entry per origin and id.
func Union(a, b []types.Skill) []types.Skill {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]types.Skill, 0, len(a)+len(b))
	for _, list := range [][]types.Skill{a, b} {
		for _, s := range list {
			if seen[s.Key()] {
				continue
			}
			seen[s.Key()] = true
			out = append(out, s)
		}
	}
	sortSkills(out)
	return out
}

// sortSkills orders by id, then local before remote, then by origin key.
func sortSkills(list []types.Skill) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].ID != list[j].ID {
			return list[i].ID < list[j].ID
		}
		if list[i].Origin.IsRemote() != list[j].Origin.IsRemote() {
			return !list[i].Origin.IsRemote()
		}
		return list[i].Origin.Key() < list[j].Origin.Key()
	})
}
