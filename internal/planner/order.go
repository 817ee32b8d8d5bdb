package planner

import (
	"sort"
	"time"

	"daily-planner/internal/model"
)

var timeOfDayRank = map[model.TimeOfDay]int{
	model.TimeMorning:   0,
	model.TimeNoon:      1,
	model.TimeAfternoon: 2,
	model.TimeEvening:   3,
	model.TimeNight:     4,
	model.TimeAny:       5,
}

var priorityRank = map[model.Priority]int{
	model.PriorityHigh:   0,
	model.PriorityMedium: 1,
	model.PriorityLow:    2,
}

func rankTimeOfDay(t model.TimeOfDay) int {
	if r, ok := timeOfDayRank[t]; ok {
		return r
	}
	return 5
}

func rankPriority(p model.Priority) int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return 1
}

// OrderTasks returns a copy of tasks sorted by time-of-day preference, then
// priority, then effective duration (longest first). The same order is used
// for the plan request and for sequential packing.
func OrderTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := rankTimeOfDay(a.TimeOfDay), rankTimeOfDay(b.TimeOfDay); ra != rb {
			return ra < rb
		}
		if ra, rb := rankPriority(a.Priority), rankPriority(b.Priority); ra != rb {
			return ra < rb
		}
		if da, db := a.EffectiveMinutes(), b.EffectiveMinutes(); da != db {
			return da > db
		}
		return a.ID < b.ID
	})
	return out
}

// IsActiveOn reports whether the task should be planned on day: it is open,
// has begun, and its deadline (if any) falls on or after day.
func IsActiveOn(t model.Task, day time.Time) bool {
	if t.IsCompleted {
		return false
	}
	loc := day.Location()
	key := DateKey(day, loc)
	if t.BeginDate != nil && DateKey(*t.BeginDate, loc) > key {
		return false
	}
	if t.Deadline != nil && DateKey(*t.Deadline, loc) < key {
		return false
	}
	return true
}

// ActiveOn filters tasks down to those active on day.
func ActiveOn(tasks []model.Task, day time.Time) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if IsActiveOn(t, day) {
			out = append(out, t)
		}
	}
	return out
}
