package types

// DefaultSeparator joins the prefix and the flattened skill id.
const DefaultSeparator = "__"

// Import selects skills from a remote git repository.
type Import struct {
	Repo    string   `yaml:"repo" toml:"repo" json:"repo"`
	Ref     string   `yaml:"ref,omitempty" toml:"ref,omitempty" json:"ref,omitempty"`
	Include []string `yaml:"include" toml:"include" json:"include"`
	Exclude []string `yaml:"exclude,omitempty" toml:"exclude,omitempty" json:"exclude,omitempty"`
}

// InstallConfig is the install section of a pack file. Nil pointers mean
// the field was not set and its default applies.
type InstallConfig struct {
	Prefix  *string `yaml:"prefix,omitempty" toml:"prefix,omitempty" json:"prefix,omitempty"`
	Sep     *string `yaml:"sep,omitempty" toml:"sep,omitempty" json:"sep,omitempty"`
	Flatten bool    `yaml:"flatten,omitempty" toml:"flatten,omitempty" json:"flatten,omitempty"`
}

// Pack is a named selection of local and imported skills.
type Pack struct {
	Name    string        `yaml:"name" toml:"name" json:"name"`
	Include []string      `yaml:"include,omitempty" toml:"include,omitempty" json:"include,omitempty"`
	Exclude []string      `yaml:"exclude,omitempty" toml:"exclude,omitempty" json:"exclude,omitempty"`
	Imports []Import      `yaml:"imports,omitempty" toml:"imports,omitempty" json:"imports,omitempty"`
	Install InstallConfig `yaml:"install,omitempty" toml:"install,omitempty" json:"install,omitempty"`

	// Path is the file the pack was loaded from.
	Path string `yaml:"-" toml:"-" json:"path,omitempty"`
}

// InstallOptions are the effective naming options of a pack.
type InstallOptions struct {
	Prefix  string `json:"prefix"`
	Sep     string `json:"sep"`
	Flatten bool   `json:"flatten"`
}

// InstallOptions applies the defaults: prefix is the pack name and the
// separator is DefaultSeparator.
func (p *Pack) InstallOptions() InstallOptions {
	opts := InstallOptions{
		Prefix:  p.Name,
		Sep:     DefaultSeparator,
		Flatten: p.Install.Flatten,
	}
	if p.Install.Prefix != nil {
		opts.Prefix = *p.Install.Prefix
	}
	if p.Install.Sep != nil {
		opts.Sep = *p.Install.Sep
	}
	return opts
}

// IsEmpty reports whether the pack selects nothing at all.
func (p *Pack) IsEmpty() bool {
	return len(p.Include) == 0 && len(p.Imports) == 0
}
