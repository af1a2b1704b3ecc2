// Package waterlog defines the shared domain types for hydration logging.
//
// These types cross every layer of sipstream: the API client decodes into
// them, the day ledger mutates them, the badge engine reads them, and the
// sync coordinator merges them. Keeping them in one leaf package avoids
// import cycles between those layers.
package waterlog

import (
	"fmt"
	"time"
)

// DateFormat is the canonical calendar-date layout used for day keys,
// goal snapshots, and API query parameters. Dates are always in the
// device's local timezone.
const DateFormat = "2006-01-02"

// Entry is a single logged drink.
//
// ID is a decimal string for server-assigned entries and a "tmp-" prefixed
// UUID for optimistic entries that have not been acknowledged yet. The two
// forms never collide.
type Entry struct {
	ID        string    `json:"id"`
	Amount    int       `json:"amount"` // hydration-effective milliliters
	Timestamp time.Time `json:"timestamp"`
	DrinkType string    `json:"drink_type"`
}

// Pending reports whether the entry is an optimistic placeholder that the
// backend has not confirmed.
func (e Entry) Pending() bool {
	return len(e.ID) > 4 && e.ID[:4] == "tmp-"
}

// Day returns the calendar date the entry belongs to, in local time.
func (e Entry) Day() string {
	return e.Timestamp.Local().Format(DateFormat)
}

// DayLedger is the authoritative server view of one user-day: the ordered
// entry list, the running total, and the goal snapshot persisted for that
// date (0 when no snapshot exists).
type DayLedger struct {
	Entries      []Entry `json:"entries"`
	Total        int     `json:"total"`
	GoalSnapshot int     `json:"goal_snapshot,omitempty"`
}

// DayTotal is one bar of the recent-history chart.
type DayTotal struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
}

// Stats is the aggregate view returned by the stats endpoint. Streak counts
// consecutive days (ending today) whose total met the goal in effect when
// the day was logged.
type Stats struct {
	Daily      []DayTotal `json:"daily"`
	Streak     int        `json:"streak"`
	WeekAvg    int        `json:"week_avg"`
	WeekTotal  int        `json:"week_total"`
	MonthTotal int        `json:"month_total"`
}

// Day formats a wall-clock instant as a local calendar date.
func Day(t time.Time) string {
	return t.Local().Format(DateFormat)
}

// ParseDay validates a calendar-date string.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// Noon returns the synthetic timestamp used for backdated entries: local
// noon of the given date. Noon keeps the entry inside the target day under
// any plausible timezone interpretation, where midnight would not.
func Noon(date string) (time.Time, error) {
	t, err := ParseDay(date)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.Local), nil
}
