package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGoalCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Show or change the daily goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer sess.Close()

			st := sess.App.State()
			msg := fmt.Sprintf("base %dml", st.BaseGoal)
			for _, b := range st.Target.Bonuses {
				msg += fmt.Sprintf(" + %s %dml", b.ID, b.Amount)
			}
			msg += fmt.Sprintf(" = %dml today", st.Target.EffectiveGoal)
			return opts.Formatter(cmd).Success(msg)
		},
	}
	cmd.AddCommand(newGoalSetCommand(opts))
	return cmd
}

func newGoalSetCommand(opts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "set <ml>",
		Short: "Set the daily goal, or correct a past day's goal",
		Long: `Set the base daily goal in milliliters.

With --date, rewrites the goal recorded for that past day instead. A
historical correction changes how that day scores against the streak; it
never touches today's goal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ml, err := strconv.Atoi(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid goal %q", args[0]), err)
			}

			sess, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx := cmd.Context()
			if date != "" {
				if err := sess.App.CorrectGoal(ctx, date, ml); err != nil {
					return WrapExitError(ExitFailure, "correcting goal", err)
				}
				return opts.Formatter(cmd).Success(fmt.Sprintf("goal for %s set to %dml", date, ml))
			}

			if err := sess.App.SetBaseGoal(ctx, ml); err != nil {
				return WrapExitError(ExitFailure, "setting goal", err)
			}
			if err := sess.App.SyncWait(ctx); err != nil {
				return err
			}
			st := sess.App.State()
			return opts.Formatter(cmd).Success(fmt.Sprintf("base goal %dml, effective today %dml", st.BaseGoal, st.Target.EffectiveGoal))
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "correct this past day instead (YYYY-MM-DD)")
	return cmd
}
