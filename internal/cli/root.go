// Package cli implements the sipstream command-line surface.
//
// Every subcommand is one-shot: build the app from config, resolve
// identity, run the action, sync, print, exit. Commands share RootOptions
// (config path, output format, verbosity) through cobra's persistent
// flags.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/sipstream/internal/config"
	"github.com/roach88/sipstream/internal/logging"
)

// Output formats supported by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// RootOptions are the persistent flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	Format     string
	Verbose    bool

	cfg config.Config
}

// Config returns the loaded configuration: valid after PersistentPreRunE.
func (o *RootOptions) Config() config.Config { return o.cfg }

// Formatter builds an OutputFormatter for the command's stdout.
func (o *RootOptions) Formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// NewRootCommand builds the sipstream command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	root := &cobra.Command{
		Use:   "sipstream",
		Short: "Hydration tracking from the terminal",
		Long: `sipstream tracks daily water intake against an adaptive goal.

Drinks log optimistically and reconcile with the backend; conditions like
a hot day or a workout raise today's goal without touching past days. Runs
as a guest until you log in, then migrates guest data to your account.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != FormatText && opts.Format != FormatJSON {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q (want %s or %s)", opts.Format, FormatText, FormatJSON), nil)
			}
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading config", err)
			}
			opts.cfg = cfg
			logging.Init(cfg.Log, opts.Verbose)
			return nil
		},
	}

	defaultConfig := ""
	if home, err := os.UserHomeDir(); err == nil {
		defaultConfig = filepath.Join(home, ".sipstream", "config.yaml")
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", defaultConfig, "config file path")
	pf.StringVar(&opts.Format, "format", FormatText, "output format (text or json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newStatusCommand(opts),
		newLogCommand(opts),
		newDeleteCommand(opts),
		newGoalCommand(opts),
		newConditionCommand(opts),
		newStatsCommand(opts),
		newPresetCommand(opts),
		newBadgesCommand(opts),
		newInsightCommand(opts),
		newSyncCommand(opts),
		newLoginCommand(opts),
	)
	return root
}

// Main runs the CLI and returns the process exit code.
func Main() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sipstream: %v\n", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
