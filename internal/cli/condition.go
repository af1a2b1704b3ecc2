package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sipstream/internal/goal"
)

func newConditionCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "condition [toggle <id>]",
		Short: "Show or toggle today's conditions",
		Long: `Conditions raise today's goal while active and reset at midnight:

  hot       +500ml   high temperature
  active    +750ml   exercise or heavy physical work
  recovery  +1000ml  illness, hangover, or travel`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer sess.Close()
			return opts.Formatter(cmd).Success(conditionView(sess.App.State().Conditions))
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a condition for today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.App.ToggleCondition(cmd.Context(), args[0]); err != nil {
				return WrapExitError(ExitFailure, "toggling condition", err)
			}
			st := sess.App.State()
			return opts.Formatter(cmd).Success(fmt.Sprintf("%s\neffective goal %dml", conditionView(st.Conditions), st.Target.EffectiveGoal))
		},
	})
	return cmd
}

func conditionView(c goal.Conditions) string {
	var parts []string
	for _, f := range goal.Factors {
		state := "off"
		if c.IsActive(f.ID) {
			state = fmt.Sprintf("on (+%dml)", f.Bonus)
		}
		parts = append(parts, fmt.Sprintf("%-9s %s", f.ID, state))
	}
	return strings.Join(parts, "\n")
}
