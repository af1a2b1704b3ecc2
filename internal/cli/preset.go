package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sipstream/internal/store"
)

func newPresetCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "List or edit quick-add presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer sess.Close()

			list := sess.App.QuickAdds()
			if opts.Format == FormatJSON {
				return opts.Formatter(cmd).Success(list)
			}
			var b strings.Builder
			for _, q := range list {
				fmt.Fprintf(&b, "%-16s%5dml\n", q.Name, q.Amount)
			}
			return opts.Formatter(cmd).Success(strings.TrimRight(b.String(), "\n"))
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name> <ml>",
			Short: "Save a preset, replacing any with the same name",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ml, err := strconv.Atoi(args[1])
				if err != nil {
					return WrapExitError(ExitCommandError, fmt.Sprintf("invalid volume %q", args[1]), err)
				}
				sess, err := openSession(cmd.Context(), opts)
				if err != nil {
					return err
				}
				defer sess.Close()

				if err := sess.App.AddQuickAdd(store.QuickAdd{Name: args[0], Amount: ml}); err != nil {
					return WrapExitError(ExitFailure, "saving preset", err)
				}
				return opts.Formatter(cmd).Success(fmt.Sprintf("preset %s = %dml", args[0], ml))
			},
		},
		&cobra.Command{
			Use:   "rm <name>",
			Short: "Delete a preset",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sess, err := openSession(cmd.Context(), opts)
				if err != nil {
					return err
				}
				defer sess.Close()

				if err := sess.App.RemoveQuickAdd(args[0]); err != nil {
					return WrapExitError(ExitFailure, "removing preset", err)
				}
				return opts.Formatter(cmd).Success(fmt.Sprintf("removed preset %s", args[0]))
			},
		},
	)
	return cmd
}
