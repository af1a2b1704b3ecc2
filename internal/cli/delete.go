package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCommand(opts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "delete <entry-id>",
		Short: "Delete a logged drink",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer sess.Close()

			if date != "" {
				if err := sess.App.SelectDate(cmd.Context(), date); err != nil {
					return WrapExitError(ExitFailure, "selecting date", err)
				}
				if err := sess.App.SyncWait(cmd.Context()); err != nil {
					return err
				}
			}

			if err := sess.App.DeleteEntry(cmd.Context(), args[0]); err != nil {
				return WrapExitError(ExitFailure, "deleting entry", err)
			}
			if err := sess.App.SyncWait(cmd.Context()); err != nil {
				return err
			}

			st := sess.App.State()
			return opts.Formatter(cmd).Success(fmt.Sprintf("deleted %s, now %d / %d ml", args[0], st.Total, st.DisplayGoal))
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day the entry belongs to (YYYY-MM-DD, default today)")
	return cmd
}
