package planner

import (
	"sort"
	"time"

	"daily-planner/internal/model"
)

// Retime sorts items by position and lays them out back to back from anchor,
// keeping each item's stored duration.
func Retime(items []model.ScheduleItem, anchor time.Time) []model.ScheduleItem {
	out := make([]model.ScheduleItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	cursor := anchor
	for i := range out {
		dur := out[i].EndTime.Sub(out[i].StartTime)
		out[i].StartTime = cursor
		out[i].EndTime = cursor.Add(dur)
		cursor = out[i].EndTime
	}
	return out
}
