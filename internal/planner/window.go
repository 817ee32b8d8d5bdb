package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"daily-planner/internal/model"
)

// Clock is a time of day in minutes after midnight.
type Clock int

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseClock parses a 24h "HH:MM" (or "H:MM") string.
func ParseClock(s string) (Clock, bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	if h > 23 || mins > 59 {
		return 0, false
	}
	return Clock(h*60 + mins), true
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On anchors the clock to the calendar date of day, in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, day.Location())
}

// ClockOf returns the time of day of t in loc, truncated to the minute.
func ClockOf(t time.Time, loc *time.Location) Clock {
	lt := t.In(loc)
	return Clock(lt.Hour()*60 + lt.Minute())
}

// Window is the daily focus window all schedule items must fall into.
type Window struct {
	Start Clock
	End   Clock
}

// DefaultWindow is used whenever the configured window is missing or invalid.
var DefaultWindow = Window{Start: 9 * 60, End: 18 * 60}

// ResolveWindow parses the configured bounds. Missing, malformed or reversed
// input yields DefaultWindow.
func ResolveWindow(start, end string) Window {
	s, okStart := ParseClock(start)
	e, okEnd := ParseClock(end)
	if !okStart || !okEnd || e <= s {
		return DefaultWindow
	}
	return Window{Start: s, End: e}
}

// Bounds returns the window as instants on the given day.
func (w Window) Bounds(day time.Time) (time.Time, time.Time) {
	return w.Start.On(day), w.End.On(day)
}

// Minutes is the length of the window.
func (w Window) Minutes() int {
	return int(w.End - w.Start)
}

// Clamp restricts [start, end) to the window and anchors it to day.
// It reports false when nothing of the interval is left.
func (w Window) Clamp(day time.Time, start, end Clock) (time.Time, time.Time, bool) {
	if start < w.Start {
		start = w.Start
	}
	if end > w.End {
		end = w.End
	}
	if end <= start {
		return time.Time{}, time.Time{}, false
	}
	return start.On(day), end.On(day), true
}

// Day truncates t to midnight of its calendar date in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseDay parses a YYYY-MM-DD date in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(model.DateLayout, strings.TrimSpace(s), loc)
}

// DateKey formats the calendar date of t in loc as YYYY-MM-DD.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(model.DateLayout)
}
