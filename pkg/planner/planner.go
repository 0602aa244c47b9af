// Package planner maps resolved skills to destination folder names.
//
// A folder name is prefix + sep + flattened id, where the flattened id is the
// skill id with "/" replaced by sep, or only its last segment when flatten is
// set. An empty prefix still keeps the separator. The mapping must be
// injective; any collision fails the plan before anything touches a sink.
package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/logging"
	"github.com/arthur-debert/skillpack/pkg/paths"
	"github.com/arthur-debert/skillpack/pkg/types"
)

// Entry is one planned destination.
type Entry struct {
	Skill types.Skill `json:"skill"`
	Name  string      `json:"name"`
}

// Plan is an injective skill to folder name mapping, sorted by name.
type Plan struct {
	Options types.InstallOptions `json:"options"`
	Entries []Entry              `json:"entries"`
}

// Names returns the planned folder names in order.
func (p *Plan) Names() []string {
	names := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		names[i] = e.Name
	}
	return names
}

// FolderName computes the destination name of one skill id.
func FolderName(id string, opts types.InstallOptions) string {
	flattened := strings.ReplaceAll(id, "/", opts.Sep)
	if opts.Flatten {
		flattened = id[strings.LastIndex(id, "/")+1:]
	}
	return opts.Prefix + opts.Sep + flattened
}

// Build plans the given skills. It fails with NAME_COLLISION when two skills
// share a folder name and with NAME_INVALID when a name is unusable as a
// directory entry.
func Build(selection []types.Skill, opts types.InstallOptions) (*Plan, error) {
	logger := logging.GetLogger("planner")

	owners := make(map[string]types.Skill, len(selection))
	plan := &Plan{Options: opts, Entries: make([]Entry, 0, len(selection))}

	for _, skill := range selection {
		name := FolderName(skill.ID, opts)
		if err := paths.ValidateFolderName(name); err != nil {
			return nil, errors.Wrapf(err, errors.ErrNameInvalid, "skill %s maps to an invalid folder name", skill.ID).
				WithDetail("skill", skill.ID).
				WithDetail("name", name).
				WithHint("Adjust install.prefix or install.sep in the pack")
		}
		if other, taken := owners[name]; taken {
			return nil, collision(other, skill, name)
		}
		owners[name] = skill
		plan.Entries = append(plan.Entries, Entry{Skill: skill, Name: name})
	}

	sort.Slice(plan.Entries, func(i, j int) bool {
		return plan.Entries[i].Name < plan.Entries[j].Name
	})

	logger.Debug().Int("entries", len(plan.Entries)).Str("prefix", opts.Prefix).
		Str("sep", opts.Sep).Bool("flatten", opts.Flatten).Msg("Built install plan")
	return plan, nil
}

func collision(a, b types.Skill, name string) error {
	first, second := describe(a), describe(b)
	if first > second {
		first, second = second, first
	}
	return errors.Newf(errors.ErrNameCollision, "skills %s and %s both map to %s", first, second, name).
		WithDetail("name", name).
		WithDetail("skills", []string{first, second}).
		WithHint("Disable install.flatten, change install.sep, or exclude one of the skills")
}

// describe names a skill unambiguously, adding the origin when it is remote.
func describe(s types.Skill) string {
	if s.Origin.IsRemote() {
		return fmt.Sprintf("%s [%s]", s.ID, s.Origin)
	}
	return s.ID
}
