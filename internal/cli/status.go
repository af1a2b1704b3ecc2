package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sipstream/internal/app"
	"github.com/roach88/sipstream/internal/waterlog"
)

// statusView is the status command's renderable snapshot.
type statusView struct {
	User    string           `json:"user"`
	Guest   bool             `json:"guest"`
	Date    string           `json:"date"`
	Total   int              `json:"total_ml"`
	Goal    int              `json:"goal_ml"`
	Percent int              `json:"percent"`
	Streak  int              `json:"streak"`
	Online  bool             `json:"online"`
	Bonuses map[string]int   `json:"bonuses,omitempty"`
	Entries []waterlog.Entry `json:"entries"`
}

func (v statusView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %d / %d ml (%d%%)", v.Date, v.Total, v.Goal, v.Percent)
	if v.Streak > 0 {
		fmt.Fprintf(&b, "  streak %dd", v.Streak)
	}
	if !v.Online {
		b.WriteString("  [offline]")
	}
	if v.Guest {
		b.WriteString("  [guest]")
	}
	for _, e := range v.Entries {
		fmt.Fprintf(&b, "\n  %s  %4dml %-8s %s", e.ID, e.Amount, e.DrinkType, e.Timestamp.Local().Format("15:04"))
	}
	return b.String()
}

func newStatusCommand(opts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show intake, goal, and streak for a day",
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
			return opts.Formatter(cmd).Success(viewOf(sess.App.State()))
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to show (YYYY-MM-DD, default today)")
	return cmd
}

func viewOf(st app.State) statusView {
	v := statusView{
		User:    st.Identity.UserID,
		Guest:   st.Identity.IsGuest,
		Date:    st.ViewedDate,
		Total:   st.Total,
		Goal:    st.DisplayGoal,
		Streak:  st.Stats.Streak,
		Online:  st.Online,
		Entries: st.Entries,
	}
	if st.DisplayGoal > 0 {
		v.Percent = st.Total * 100 / st.DisplayGoal
	}
	if st.IsToday && len(st.Target.Bonuses) > 0 {
		v.Bonuses = make(map[string]int, len(st.Target.Bonuses))
		for _, bb := range st.Target.Bonuses {
			v.Bonuses[bb.ID] = bb.Amount
		}
	}
	return v
}
