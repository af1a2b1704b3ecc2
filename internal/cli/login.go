package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sipstream/internal/identity"
)

func newLoginCommand(opts *RootOptions) *cobra.Command {
	var (
		user  string
		email string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and migrate guest data to the account",
		Long: `Write the session file and claim guest-era data.

Drinks logged before signing in, including any stranded offline, move to
the account on the first login. Unlocked badges carry over unchanged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return WrapExitError(ExitCommandError, "missing --user", nil)
			}

			sess, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer sess.Close()

			// Saving the session notifies the resolver, which triggers
			// migration and the authenticated resync.
			if err := sess.Provider.Save(identity.Session{UserID: user, Email: email}); err != nil {
				return WrapExitError(ExitFailure, "saving session", err)
			}
			if err := sess.App.SyncWait(cmd.Context()); err != nil {
				return err
			}

			st := sess.App.State()
			return opts.Formatter(cmd).Success(fmt.Sprintf("signed in as %s, %d / %d ml today", st.Identity.UserID, st.Total, st.DisplayGoal))
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "account user id")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}
