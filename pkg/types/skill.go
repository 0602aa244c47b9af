package types

import "fmt"

// SkillMarker is the file that turns a directory into a skill.
const SkillMarker = "SKILL.md"

// OriginKind tags where a skill was discovered.
type OriginKind string

const (
	OriginLocal  OriginKind = "local"
	OriginRemote OriginKind = "remote"
)

// Origin is a tagged variant: Repo, Ref and Commit are only set for remote
// origins.
type Origin struct {
	Kind   OriginKind `json:"kind"`
	Repo   string     `json:"repo,omitempty"`
	Ref    string     `json:"ref,omitempty"`
	Commit string     `json:"commit,omitempty"`
}

// LocalOrigin returns the origin of skills from the local repository.
func LocalOrigin() Origin {
	return Origin{Kind: OriginLocal}
}

// RemoteOrigin returns the origin of skills from an imported repository.
func RemoteOrigin(repo, ref, commit string) Origin {
	return Origin{Kind: OriginRemote, Repo: repo, Ref: ref, Commit: commit}
}

// IsRemote reports whether the origin is an import.
func (o Origin) IsRemote() bool {
	return o.Kind == OriginRemote
}

// Key identifies the namespace a skill id lives in. Two skills are the same
// skill iff both their origin key and id are equal.
func (o Origin) Key() string {
	if o.IsRemote() {
		return fmt.Sprintf("remote:%s@%s", o.Repo, o.Commit)
	}
	return string(OriginLocal)
}

func (o Origin) String() string {
	if !o.IsRemote() {
		return string(OriginLocal)
	}
	ref := o.Ref
	if ref == "" {
		ref = "HEAD"
	}
	return fmt.Sprintf("%s@%s (%s)", o.Repo, ref, shortCommit(o.Commit))
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}

// Skill is a discovered skill folder.
type Skill struct {
	// ID is the slash-separated path relative to the discovery root.
	ID     string `json:"id"`
	Origin Origin `json:"origin"`
	// SourcePath is the absolute location of the skill directory.
	SourcePath string `json:"source_path"`
}

// Key identifies a skill across origins.
func (s Skill) Key() string {
	return s.Origin.Key() + "#" + s.ID
}

// SkillMeta is the optional frontmatter of a SKILL.md file.
type SkillMeta struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}
