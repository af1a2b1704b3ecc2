package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sipstream/internal/waterlog"
)

// statsView is the stats command's renderable snapshot.
type statsView struct {
	Streak     int                 `json:"streak"`
	WeekAvg    int                 `json:"week_avg_ml"`
	WeekTotal  int                 `json:"week_total_ml"`
	MonthTotal int                 `json:"month_total_ml"`
	Daily      []waterlog.DayTotal `json:"daily"`
}

func (v statsView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "streak %dd  week avg %dml  week %dml  month %dml", v.Streak, v.WeekAvg, v.WeekTotal, v.MonthTotal)
	for _, d := range v.Daily {
		fmt.Fprintf(&b, "\n  %s  %5dml", d.Date, d.Total)
	}
	return b.String()
}

func newStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show streak and trailing-window totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer sess.Close()

			st := sess.App.State().Stats
			return opts.Formatter(cmd).Success(statsView{
				Streak:     st.Streak,
				WeekAvg:    st.WeekAvg,
				WeekTotal:  st.WeekTotal,
				MonthTotal: st.MonthTotal,
				Daily:      st.Daily,
			})
		},
	}
}
