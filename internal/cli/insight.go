package cli

import (
	"github.com/spf13/cobra"
)

func newInsightCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insight",
		Short: "Get a coaching message for today's progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer sess.Close()

			msg, fromServer := sess.App.FetchInsight(cmd.Context())
			if opts.Format == FormatJSON {
				return opts.Formatter(cmd).Success(map[string]any{
					"message":     msg,
					"from_server": fromServer,
				})
			}
			return opts.Formatter(cmd).Success(msg)
		},
	}
}
