package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sipstream/internal/app"
	"github.com/roach88/sipstream/internal/waterlog"
)

func newLogCommand(opts *RootOptions) *cobra.Command {
	var (
		amount int
		preset string
		drink  string
		date   string
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log a drink",
		Long: `Log a drink against today or, with --date, a past day.

Volumes are discounted by drink type before counting toward the goal
(coffee counts 85%, tea 90%). Without --amount or --preset the configured
default volume is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer sess.Close()

			if preset != "" {
				q, ok := sess.App.LookupQuickAdd(preset)
				if !ok {
					return WrapExitError(ExitFailure, fmt.Sprintf("no preset named %q", preset), nil)
				}
				amount = q.Amount
			}
			if amount == 0 {
				amount = sess.Config.DrinkAmount
			}
			if date != "" {
				if err := sess.App.SelectDate(cmd.Context(), date); err != nil {
					return WrapExitError(ExitFailure, "selecting date", err)
				}
			}

			entry, err := sess.App.AddDrink(cmd.Context(), amount, drink)
			if err != nil {
				return WrapExitError(ExitFailure, "logging drink", err)
			}
			if err := sess.App.SyncWait(cmd.Context()); err != nil {
				return err
			}

			for _, ev := range drainedEvents(sess.App.Events()) {
				if ev.Badge.ID != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Badge unlocked: %s %s\n", ev.Badge.Icon, ev.Badge.Name)
				}
				if ev.Milestone > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "Streak milestone: %d days!\n", ev.Milestone)
				}
			}

			st := sess.App.State()
			d := waterlog.DrinkByID(drink)
			return opts.Formatter(cmd).Success(logView{
				EntryID:   entry.ID,
				Drink:     d.ID,
				Effective: waterlog.EffectiveAmount(amount, drink),
				Total:     st.Total,
				Goal:      st.DisplayGoal,
			})
		},
	}
	cmd.Flags().IntVarP(&amount, "amount", "a", 0, "volume in ml (default: configured volume)")
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "log a named preset volume")
	cmd.Flags().StringVarP(&drink, "type", "t", waterlog.DefaultDrink, "drink type (water, coffee, tea, protein, juice)")
	cmd.Flags().StringVar(&date, "date", "", "backdate to a past day (YYYY-MM-DD)")
	return cmd
}

type logView struct {
	EntryID   string `json:"entry_id"`
	Drink     string `json:"drink"`
	Effective int    `json:"effective_ml"`
	Total     int    `json:"total_ml"`
	Goal      int    `json:"goal_ml"`
}

func (v logView) String() string {
	return fmt.Sprintf("logged %dml %s (entry %s), now %d / %d ml", v.Effective, v.Drink, v.EntryID, v.Total, v.Goal)
}

// drainedEvents empties the app's event queue without blocking.
func drainedEvents(ch <-chan app.Event) []app.Event {
	var out []app.Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}
