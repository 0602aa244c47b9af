package commands

import (
	"github.com/arthur-debert/skillpack/pkg/logging"
	"github.com/arthur-debert/skillpack/pkg/skills"
)

// SkillInfo describes one local skill.
type SkillInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
}

// ListSkillsOptions defines the options for ListSkills.
type ListSkillsOptions struct {
	// Describe reads the SKILL.md frontmatter of every skill.
	Describe bool
}

// ListSkillsResult is the output of ListSkills.
type ListSkillsResult struct {
	Root   string      `json:"root"`
	Count  int         `json:"count"`
	Skills []SkillInfo `json:"skills"`
}

// ListSkills discovers the skills of the repository.
func ListSkills(env *Env, opts ListSkillsOptions) (*ListSkillsResult, error) {
	log := logging.GetLogger("commands")
	log.Debug().Str("command", "ListSkills").Msg("Executing command")

	found, err := skills.DiscoverLocal(env.FS, env.Paths.RepoRoot())
	if err != nil {
		return nil, err
	}

	result := &ListSkillsResult{Root: env.Paths.RepoRoot(), Skills: make([]SkillInfo, 0, len(found))}
	for _, s := range found {
		info := SkillInfo{ID: s.ID, Path: s.SourcePath}
		if opts.Describe {
			doc, err := skills.ReadDocument(env.FS, s)
			if err != nil {
				log.Warn().Err(err).Str("skill", s.ID).Msg("Skipping unreadable frontmatter")
			} else {
				info.Name = doc.Meta.Name
				info.Description = doc.Meta.Description
			}
		}
		result.Skills = append(result.Skills, info)
	}
	result.Count = len(result.Skills)

	log.Info().Str("command", "ListSkills").Int("skillCount", result.Count).Msg("Command finished")
	return result, nil
}

// ShowSkillResult is the output of ShowSkill.
type ShowSkillResult struct {
	SkillInfo
	Extra map[string]interface{} `json:"extra,omitempty"`
	Body  string                 `json:"body"`
}

// ShowSkill loads one local skill and its SKILL.md.
func ShowSkill(env *Env, id string) (*ShowSkillResult, error) {
	found, err := skills.DiscoverLocal(env.FS, env.Paths.RepoRoot())
	if err != nil {
		return nil, err
	}
	skill, err := skills.FindByID(found, id)
	if err != nil {
		return nil, err
	}
	doc, err := skills.ReadDocument(env.FS, skill)
	if err != nil {
		return nil, err
	}
	return &ShowSkillResult{
		SkillInfo: SkillInfo{
			ID:          skill.ID,
			Name:        doc.Meta.Name,
			Description: doc.Meta.Description,
			Path:        skill.SourcePath,
		},
		Extra: doc.Extra,
		Body:  doc.Body,
	}, nil
}
