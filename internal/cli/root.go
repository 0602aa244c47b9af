// Package cli builds the sp command tree.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/skillpack/internal/version"
	"github.com/arthur-debert/skillpack/pkg/commands"
	"github.com/arthur-debert/skillpack/pkg/config"
	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/logging"
	"github.com/arthur-debert/skillpack/pkg/output"
	"github.com/arthur-debert/skillpack/pkg/paths"
)

// newEnv builds the command environment. Tests replace it to serve imports
// without the network.
var newEnv = commands.NewEnv

// globalOptions holds the persistent flags.
type globalOptions struct {
	verbosity int
	root      string
	cacheDir  string
	format    string
	noColor   bool
}

// env creates the command environment and warns when the repository root
// was not found.
func (g *globalOptions) env(cmd *cobra.Command) (*commands.Env, error) {
	env, err := newEnv(paths.Options{Root: g.root, CacheDir: g.cacheDir})
	if err != nil {
		return nil, err
	}
	if env.Paths.UsedFallback() {
		fmt.Fprintf(cmd.ErrOrStderr(), MsgFallbackWarning, env.Paths.RepoRoot())
	}
	return env, nil
}

func (g *globalOptions) printer(cmd *cobra.Command) (*output.Printer, error) {
	format, err := output.ParseFormat(g.format)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid --format").
			WithHint("Use --format pretty, plain, json or auto")
	}
	return output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), format, g.noColor), nil
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&globalOptions{})
}

func newRootCmd(g *globalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "sp",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Example: MsgRootExample,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logging.Options{Verbosity: g.verbosity, NoColor: g.noColor, Console: cmd.ErrOrStderr()})
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&g.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.StringVar(&g.root, "root", "", MsgFlagRoot)
	flags.StringVar(&g.cacheDir, "cache-dir", "", MsgFlagCacheDir)
	flags.StringVar(&g.format, "format", "auto", MsgFlagFormat)
	flags.BoolVar(&g.noColor, "no-color", false, MsgFlagNoColor)
	_ = rootCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"pretty", "plain", "json", "auto"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddGroup(&cobra.Group{ID: "repo", Title: "Repository:"})
	rootCmd.AddGroup(&cobra.Group{ID: "install", Title: "Installing:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "Misc:"})

	rootCmd.AddCommand(newSkillsCmd(g))
	rootCmd.AddCommand(newSkillCmd(g))
	rootCmd.AddCommand(newPacksCmd(g))
	rootCmd.AddCommand(newShowCmd(g))
	rootCmd.AddCommand(newInstallCmd(g))
	rootCmd.AddCommand(newUninstallCmd(g))
	rootCmd.AddCommand(newInstalledCmd(g))
	rootCmd.AddCommand(newConfigCmd(g))
	rootCmd.AddCommand(newVersionCmd(g))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// Execute runs sp with args and returns the process exit code. Errors are
// printed to stderr in the selected format with their hint.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	g := &globalOptions{}
	rootCmd := newRootCmd(g)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	log.Debug().Err(err).Str("code", string(errors.GetErrorCode(err))).Msg("Command failed")
	format, parseErr := output.ParseFormat(g.format)
	if parseErr != nil {
		format = output.FormatPlain
	}
	output.NewPrinter(stdout, stderr, format, g.noColor).Error(err)
	return 1
}

// packNamesCompletion provides shell completion for pack names
func packNamesCompletion(g *globalOptions) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		env, err := newEnv(paths.Options{Root: g.root, CacheDir: g.cacheDir})
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		result, err := commands.ListPacks(env)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		names := make([]string, 0, len(result.Packs))
		for _, pack := range result.Packs {
			names = append(names, pack.Name)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}

// sinkNamesCompletion completes --sink with the configured sink names.
func sinkNamesCompletion(g *globalOptions) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		env, err := newEnv(paths.Options{Root: g.root, CacheDir: g.cacheDir})
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		cfg, err := env.Config()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return append(cfg.SinkNames(), config.CustomSink), cobra.ShellCompDirectiveNoFileComp
	}
}
