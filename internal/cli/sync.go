package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Force a backend sync and report connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer sess.Close()

			// openSession already ran the initial sync; run one more so a
			// backend that just came back is noticed now, not next command.
			if err := sess.App.SyncWait(cmd.Context()); err != nil {
				return err
			}

			st := sess.App.State()
			status := "online"
			if !st.Online {
				status = "offline, showing cached data"
			}
			return opts.Formatter(cmd).Success(fmt.Sprintf("%s: %d / %d ml on %s", status, st.Total, st.DisplayGoal, st.ViewedDate))
		},
	}
}
