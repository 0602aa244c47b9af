package cli

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Install curated skill packs into agent skill folders"
	MsgSkillsShort     = "List the skills of the repository"
	MsgSkillShort      = "Show one skill and its SKILL.md"
	MsgPacksShort      = "List the packs of the repository"
	MsgShowShort       = "Resolve a pack and show what it would install"
	MsgInstallShort    = "Install a pack into one or more sinks"
	MsgUninstallShort  = "Remove an installed pack from one or more sinks"
	MsgInstalledShort  = "List installed packs"
	MsgConfigShort     = "Show the configured sinks"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagRoot     = "Skill repository root (default: nearest ancestor with skills/ or packs/)"
	MsgFlagCacheDir = "Git cache directory for imports"
	MsgFlagFormat   = "Output format: pretty, plain, json or auto"
	MsgFlagNoColor  = "Disable colored output"
	MsgFlagDescribe = "Read SKILL.md frontmatter and show descriptions"
	MsgFlagSink     = "Target sink by name (repeatable), e.g. claude, codex or custom"
	MsgFlagPath     = "Override the destination folder of the single selected sink"

	// Warnings
	MsgFallbackWarning = "Warning: no skills/ or packs/ found above the current directory, using %s\n"
)

// Long messages
const (
	MsgRootLong = `sp installs skill packs into the folders AI coding agents read skills from.

A skill is a folder holding a SKILL.md below skills/. A pack file in packs/
selects skills with include and exclude patterns, optionally imports skills
from other git repositories, and names the installed folders. sp records
what it installs per sink so reinstalling converges and uninstalling only
removes what sp put there.`

	MsgShowLong = `Show resolves a pack exactly like install does, including fetching imports,
and prints the local skills, the skills of every import and the final folder
names. Nothing is written to any sink.`

	MsgInstallLong = `Install resolves the pack, plans folder names and copies every selected skill
into each sink. Folders from a previous install of the same pack that are no
longer selected are removed. Existing folders that sp did not install are
never overwritten.`

	MsgUninstallLong = `Uninstall removes the folders recorded for the pack in each sink and drops the
record. The argument may be a pack name or a pack file.`

	MsgConfigLong = `Config shows the sinks sp knows about. Built-in defaults can be overridden in
config.yaml (or config.toml) in the skillpack home, or with
SKILLPACK_SINKS_<NAME>=<path> environment variables.`

	MsgCompletionLong = `To load completions:

Bash:
  $ source <(sp completion bash)

Zsh:
  $ sp completion zsh > "${fpath[1]}/_sp"

Fish:
  $ sp completion fish | source

PowerShell:
  PS> sp completion powershell | Out-String | Invoke-Expression`
)

// Examples
const (
	MsgRootExample = `  sp skills
  sp packs
  sp show general
  sp install general --sink codex
  sp install team --sink codex --sink claude
  sp installed

Use --format plain for script-friendly output.`

	MsgInstallExample = `  sp install general --sink claude
  sp install packs/team.yaml --sink codex --sink claude
  sp install general --sink custom --path ./agent-skills`
)
