package cli

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/skillpack/internal/version"
	"github.com/arthur-debert/skillpack/pkg/commands"
)

func newSkillsCmd(g *globalOptions) *cobra.Command {
	var describe bool
	cmd := &cobra.Command{
		Use:     "skills",
		Aliases: []string{"list"},
		Short:   MsgSkillsShort,
		GroupID: "repo",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.env(cmd)
			if err != nil {
				return err
			}
			p, err := g.printer(cmd)
			if err != nil {
				return err
			}
			result, err := commands.ListSkills(env, commands.ListSkillsOptions{Describe: describe})
			if err != nil {
				return err
			}
			return p.Skills(result)
		},
	}
	cmd.Flags().BoolVar(&describe, "describe", false, MsgFlagDescribe)
	return cmd
}

func newSkillCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "skill <id>",
		Short:   MsgSkillShort,
		GroupID: "repo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.env(cmd)
			if err != nil {
				return err
			}
			p, err := g.printer(cmd)
			if err != nil {
				return err
			}
			result, err := commands.ShowSkill(env, args[0])
			if err != nil {
				return err
			}
			return p.Skill(result)
		},
	}
}

func newPacksCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "packs",
		Short:   MsgPacksShort,
		GroupID: "repo",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.env(cmd)
			if err != nil {
				return err
			}
			p, err := g.printer(cmd)
			if err != nil {
				return err
			}
			result, err := commands.ListPacks(env)
			if err != nil {
				return err
			}
			return p.Packs(result)
		},
	}
}

func newShowCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "show <pack>",
		Aliases:           []string{"pack"},
		Short:             MsgShowShort,
		Long:              MsgShowLong,
		GroupID:           "repo",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: packNamesCompletion(g),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.env(cmd)
			if err != nil {
				return err
			}
			p, err := g.printer(cmd)
			if err != nil {
				return err
			}
			result, err := commands.ShowPack(cmd.Context(), env, args[0])
			if err != nil {
				return err
			}
			return p.Pack(result)
		},
	}
}

// sinkFlags registers --sink and --path on cmd.
func sinkFlags(g *globalOptions, cmd *cobra.Command, sinks *[]string, path *string) {
	cmd.Flags().StringArrayVarP(sinks, "sink", "s", nil, MsgFlagSink)
	cmd.Flags().StringVar(path, "path", "", MsgFlagPath)
	_ = cmd.RegisterFlagCompletionFunc("sink", sinkNamesCompletion(g))
	_ = cmd.MarkFlagDirname("path")
}

func newInstallCmd(g *globalOptions) *cobra.Command {
	var (
		sinks []string
		path  string
	)
	cmd := &cobra.Command{
		Use:               "install <pack>",
		Short:             MsgInstallShort,
		Long:              MsgInstallLong,
		Example:           MsgInstallExample,
		GroupID:           "install",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: packNamesCompletion(g),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.env(cmd)
			if err != nil {
				return err
			}
			p, err := g.printer(cmd)
			if err != nil {
				return err
			}
			result, err := commands.Install(cmd.Context(), env, commands.InstallOptions{
				Pack:  args[0],
				Sinks: sinks,
				Path:  path,
			})
			if result != nil && len(result.Sinks) > 0 {
				if printErr := p.Install(result); printErr != nil && err == nil {
					return printErr
				}
			}
			return err
		},
	}
	sinkFlags(g, cmd, &sinks, &path)
	return cmd
}

func newUninstallCmd(g *globalOptions) *cobra.Command {
	var (
		sinks []string
		path  string
	)
	cmd := &cobra.Command{
		Use:               "uninstall <pack>",
		Short:             MsgUninstallShort,
		Long:              MsgUninstallLong,
		GroupID:           "install",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: packNamesCompletion(g),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.env(cmd)
			if err != nil {
				return err
			}
			p, err := g.printer(cmd)
			if err != nil {
				return err
			}
			result, err := commands.Uninstall(cmd.Context(), env, commands.UninstallOptions{
				Pack:  args[0],
				Sinks: sinks,
				Path:  path,
			})
			if result != nil && len(result.Sinks) > 0 {
				if printErr := p.Uninstall(result); printErr != nil && err == nil {
					return printErr
				}
			}
			return err
		},
	}
	sinkFlags(g, cmd, &sinks, &path)
	return cmd
}

func newInstalledCmd(g *globalOptions) *cobra.Command {
	var (
		sinks []string
		path  string
	)
	cmd := &cobra.Command{
		Use:     "installed",
		Aliases: []string{"installs"},
		Short:   MsgInstalledShort,
		GroupID: "install",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.env(cmd)
			if err != nil {
				return err
			}
			p, err := g.printer(cmd)
			if err != nil {
				return err
			}
			result, err := commands.Installed(env, commands.InstalledOptions{Sinks: sinks, Path: path})
			if err != nil {
				return err
			}
			return p.Installed(result)
		},
	}
	sinkFlags(g, cmd, &sinks, &path)
	return cmd
}

func newConfigCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "config",
		Aliases: []string{"sinks"},
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		GroupID: "install",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.env(cmd)
			if err != nil {
				return err
			}
			p, err := g.printer(cmd)
			if err != nil {
				return err
			}
			result, err := commands.ShowConfig(env)
			if err != nil {
				return err
			}
			return p.Config(result)
		},
	}
}

func newVersionCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := g.printer(cmd)
			if err != nil {
				return err
			}
			return p.Version(version.Version, version.Commit, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
