package cli

import (
	"github.com/spf13/cobra"
)

func newBadgesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "badges",
		Short: "List the badge catalog with unlocked badges marked",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer sess.Close()

			st := sess.App.State()
			if opts.Format == FormatJSON {
				return opts.Formatter(cmd).Success(map[string]any{"unlocked": st.Badges})
			}
			registry := sess.App.Registry()
			return opts.Formatter(cmd).Success(registry.RenderCatalog(registry.NewSet(st.Badges)))
		},
	}
}
