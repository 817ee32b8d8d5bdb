package planner

import (
	"time"

	"daily-planner/internal/model"
)

// Interval is a busy span taken from the calendar.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) overlaps(start, end time.Time) bool {
	return start.Before(iv.End) && end.After(iv.Start)
}

// Pack lays tasks out back to back from the window start, jumping over busy
// intervals. Packing stops at the first task that no longer fits before the
// window end; later tasks are not tried.
func Pack(tasks []model.Task, day time.Time, w Window, busy []Interval) []Block {
	cursor, limit := w.Bounds(day)
	var out []Block
	for i := range tasks {
		t := tasks[i]
		dur := time.Duration(t.EffectiveMinutes()) * time.Minute
		for {
			iv, ok := firstOverlap(busy, cursor, cursor.Add(dur))
			if !ok {
				break
			}
			cursor = iv.End
		}
		if cursor.Add(dur).After(limit) {
			break
		}
		out = append(out, Block{
			Title:    t.Title,
			Start:    cursor,
			End:      cursor.Add(dur),
			Position: len(out),
			Task:     &tasks[i],
		})
		cursor = cursor.Add(dur)
	}
	return out
}

func firstOverlap(busy []Interval, start, end time.Time) (Interval, bool) {
	for _, iv := range busy {
		if iv.overlaps(start, end) {
			return iv, true
		}
	}
	return Interval{}, false
}
