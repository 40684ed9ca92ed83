// Package analytics turns session records into chart-ready series and totals.
// Every function is pure; callers recompute on each request.
package analytics

import (
	"math"
	"time"

	"pomotrack/internal/session"
)

const (
	DailyWindow   = 7
	MonthlyWindow = 12

	monthLayout = "2006-01"
)

// Bucket sums focus and break seconds for one calendar day or month.
type Bucket struct {
	FocusSeconds int `json:"focusSeconds"`
	BreakSeconds int `json:"breakSeconds"`
}

// Point is one entry of a chart series.
type Point struct {
	Label        string  `json:"label"`
	FocusMinutes float64 `json:"focusMinutes"`
	BreakMinutes float64 `json:"breakMinutes"`
}

type Summary struct {
	TotalFocusMinutes   float64 `json:"totalFocusMinutes"`
	TotalBreakMinutes   float64 `json:"totalBreakMinutes"`
	TotalSessions       int     `json:"totalSessions"`
	AverageFocusMinutes float64 `json:"averageFocusMinutes"`
	TodayFocusMinutes   float64 `json:"todayFocusMinutes"`
}

// Dashboard is the complete analytics view: a trailing 7 day series, a trailing
// 12 month series and the summary, all oldest first.
type Dashboard struct {
	Daily   []Point `json:"daily"`
	Monthly []Point `json:"monthly"`
	Summary Summary `json:"summary"`
}

// BucketByDay groups records by their exact date.
func BucketByDay(records []session.Record) map[string]Bucket {
	out := make(map[string]Bucket)
	for _, r := range records {
		b := out[r.Date]
		b.FocusSeconds += r.FocusDuration
		b.BreakSeconds += r.BreakDuration
		out[r.Date] = b
	}
	return out
}

// BucketByMonth groups records by the YYYY-MM prefix of their date.
func BucketByMonth(records []session.Record) map[string]Bucket {
	out := make(map[string]Bucket)
	for _, r := range records {
		key := monthKey(r.Date)
		b := out[key]
		b.FocusSeconds += r.FocusDuration
		b.BreakSeconds += r.BreakDuration
		out[key] = b
	}
	return out
}

// Build computes the dashboard relative to now. Windows are taken in UTC.
func Build(records []session.Record, now time.Time) Dashboard {
	now = now.UTC()
	days := BucketByDay(records)
	months := BucketByMonth(records)

	d := Dashboard{
		Daily:   make([]Point, 0, DailyWindow),
		Monthly: make([]Point, 0, MonthlyWindow),
	}
	for i := DailyWindow - 1; i >= 0; i-- {
		label := session.DateOf(now.AddDate(0, 0, -i))
		d.Daily = append(d.Daily, point(label, days[label]))
	}
	for i := MonthlyWindow - 1; i >= 0; i-- {
		label := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC).Format(monthLayout)
		d.Monthly = append(d.Monthly, point(label, months[label]))
	}
	d.Summary = Summarize(records, now)
	return d
}

// Summarize computes the totals. The average is taken over already rounded
// total minutes and is 0 for an empty list.
func Summarize(records []session.Record, now time.Time) Summary {
	var focus, brk, today int
	todayKey := session.DateOf(now.UTC())
	for _, r := range records {
		focus += r.FocusDuration
		brk += r.BreakDuration
		if r.Date == todayKey {
			today += r.FocusDuration
		}
	}

	s := Summary{
		TotalFocusMinutes: Minutes(focus),
		TotalBreakMinutes: Minutes(brk),
		TotalSessions:     len(records),
		TodayFocusMinutes: Minutes(today),
	}
	if s.TotalSessions > 0 {
		s.AverageFocusMinutes = Round2(s.TotalFocusMinutes / float64(s.TotalSessions))
	}
	return s
}

// Minutes converts seconds to minutes rounded to two decimals.
func Minutes(seconds int) float64 {
	return Round2(float64(seconds) / 60)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func point(label string, b Bucket) Point {
	return Point{Label: label, FocusMinutes: Minutes(b.FocusSeconds), BreakMinutes: Minutes(b.BreakSeconds)}
}

func monthKey(date string) string {
	if len(date) < len(monthLayout) {
		return date
	}
	return date[:len(monthLayout)]
}
