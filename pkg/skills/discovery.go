// Package skills discovers skill folders below a root directory and reads
// their SKILL.md frontmatter.
package skills

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/logging"
	"github.com/arthur-debert/skillpack/pkg/paths"
	"github.com/arthur-debert/skillpack/pkg/types"
)

// Mode selects the rules that differ between the local repository and an
// imported tree.
type Mode int

const (
	// ModeLocal rejects a SKILL.md placed directly in the root.
	ModeLocal Mode = iota
	// ModeRemote ignores a SKILL.md placed directly in the root.
	ModeRemote
)

const gitDir = ".git"

// marker is a SKILL.md occurrence found during the walk.
type marker struct {
	rel string
	// linkedAncestor is set when a folder strictly between the root and the
	// skill folder was entered through a symlink.
	linkedAncestor bool
}

type walker struct {
	fs    types.FS
	mode  Mode
	found []marker
}

// DiscoverLocal finds the skills of a repository under <repoRoot>/skills.
func DiscoverLocal(fsys types.FS, repoRoot string) ([]types.Skill, error) {
	skillsRoot := filepath.Join(repoRoot, paths.SkillsDirName)
	info, err := fsys.Stat(skillsRoot)
	if err != nil || !info.IsDir() {
		return nil, errors.Newf(errors.ErrSkillsRoot, "skills directory not found: %s", skillsRoot).
			WithDetail("path", skillsRoot).
			WithHint("Auto-discovery checks current/parent dirs for skills/ or packs/. Use --root <repo> to override")
	}
	return Discover(fsys, skillsRoot, ModeLocal, types.LocalOrigin())
}

// Discover walks root, following symlinks, and returns every leaf skill
// sorted by id. Each skill carries origin.
func Discover(fsys types.FS, root string, mode Mode, origin types.Origin) ([]types.Skill, error) {
	log := logging.GetLogger("skills.discovery")

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "invalid discovery root %s", root)
	}
	realRoot, err := fsys.EvalSymlinks(absRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot resolve discovery root %s", absRoot)
	}

	w := &walker{fs: fsys, mode: mode}
	if err := w.walk(absRoot, "", false, false, []string{realRoot}); err != nil {
		return nil, err
	}

	nonLeaf := make(map[string]bool)
	for _, m := range w.found {
		for dir := path.Dir(m.rel); dir != "."; dir = path.Dir(dir) {
			nonLeaf[dir] = true
		}
	}

	var skills []types.Skill
	for _, m := range w.found {
		if nonLeaf[m.rel] {
			log.Warn().Str("skill", m.rel).Str("root", absRoot).
				Msg("Ignoring SKILL.md in a folder that contains other skills")
			continue
		}
		source := filepath.Join(absRoot, filepath.FromSlash(m.rel))
		if m.linkedAncestor {
			return nil, errors.Newf(errors.ErrSkillLayout,
				"skill %s is reached through a symlinked folder that is not the skill folder: %s", m.rel, source).
				WithDetail("path", source).
				WithHint("Symlink the skill folder itself instead of one of its parents")
		}
		skills = append(skills, types.Skill{ID: m.rel, Origin: origin, SourcePath: source})
	}

	sort.Slice(skills, func(i, j int) bool { return skills[i].ID < skills[j].ID })
	log.Debug().Str("root", absRoot).Int("count", len(skills)).Msg("Discovered skills")
	return skills, nil
}

// walk visits dir. dirIsLink is set when dir itself was reached through a
// symlink; underLink when any folder above it was. stack holds the resolved
// paths of dir and its ancestors for loop detection.
func (w *walker) walk(dir, rel string, dirIsLink, underLink bool, stack []string) error {
	entries, err := w.fs.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to read directory %s", dir).WithDetail("path", dir)
	}

	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)

		lst, err := w.fs.Lstat(full)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to stat %s", full).WithDetail("path", full)
		}
		isLink := lst.Mode()&os.ModeSymlink != 0
		info := lst
		if isLink {
			if info, err = w.fs.Stat(full); err != nil {
				if name == types.SkillMarker {
					return errors.Wrapf(err, errors.ErrSkillLayout, "broken SKILL.md symlink: %s", full).
						WithDetail("path", full)
				}
				logger := logging.GetLogger("skills.discovery")
				logger.Debug().Str("path", full).Msg("Skipping broken symlink")
				continue
			}
		}

		if info.IsDir() {
			if name == gitDir {
				continue
			}
			resolved, err := w.fs.EvalSymlinks(full)
			if err != nil {
				return errors.Wrapf(err, errors.ErrFileAccess, "cannot resolve %s", full).WithDetail("path", full)
			}
			for _, ancestor := range stack {
				if ancestor == resolved {
					return errors.Newf(errors.ErrSkillLayout, "symlink loop at %s", full).
						WithDetail("path", full).
						WithHint("Remove the symlink that points back into its own parent")
				}
			}
			childRel := name
			if rel != "" {
				childRel = rel + "/" + name
			}
			if err := w.walk(full, childRel, isLink, underLink || dirIsLink, append(stack, resolved)); err != nil {
				return err
			}
			continue
		}

		if name != types.SkillMarker || !info.Mode().IsRegular() {
			continue
		}
		if err := w.marker(dir, rel, isLink, dirIsLink, underLink); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) marker(dir, rel string, markerIsLink, dirIsLink, underLink bool) error {
	if rel == "" {
		if w.mode == ModeLocal {
			return errors.Newf(errors.ErrSkillLayout, "%s/%s is invalid", paths.SkillsDirName, types.SkillMarker).
				WithDetail("path", filepath.Join(dir, types.SkillMarker)).
				WithHint("Move SKILL.md into a leaf skill folder")
		}
		return nil
	}
	if markerIsLink && !dirIsLink {
		return errors.Newf(errors.ErrSkillLayout, "SKILL.md is a symlink but the skill folder is not: %s", dir).
			WithDetail("path", dir).
			WithHint("Symlink the skill folder under skills/ to reuse a skill")
	}
	w.found = append(w.found, marker{rel: rel, linkedAncestor: underLink})
	return nil
}

// FindByID returns the skill with the given id.
func FindByID(skills []types.Skill, id string) (types.Skill, error) {
	id = strings.Trim(id, "/")
	for _, s := range skills {
		if s.ID == id {
			return s, nil
		}
	}
	return types.Skill{}, errors.Newf(errors.ErrSkillNotFound, "skill not found: %s", id).
		WithDetail("skill", id).
		WithHint("Run `sp skills` to list available skills")
}

// IDs returns the ids of skills in order.
func IDs(skills []types.Skill) []string {
	ids := make([]string, len(skills))
	for i, s := range skills {
		ids[i] = s.ID
	}
	return ids
}
