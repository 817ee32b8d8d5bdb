package bot

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	"daily-planner/internal/model"
)

const (
	iconDefault = "🟢"
	iconDue     = "⏳"
	iconOverdue = "⚠️"
)

func escape(s string) string {
	return html.EscapeString(s)
}

func shortTitle(title string, maxLen int) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) <= maxLen {
		return string(runes)
	}
	return string(runes[:maxLen-1]) + "…"
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return uint(id), nil
}

// parseMonthArg reads "YYYY-MM"; an empty argument means the month of now.
func parseMonthArg(arg string, now time.Time) (int, int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return now.Year(), int(now.Month()), nil
	}
	t, err := time.Parse("2006-01", arg)
	if err != nil {
		return 0, 0, fmt.Errorf("month must look like 2025-11")
	}
	return t.Year(), int(t.Month()), nil
}

// groupByTimeOfDay keeps model.TimesOfDay order and drops empty groups.
func groupByTimeOfDay(tasks []model.Task) []taskGroup {
	byTod := make(map[model.TimeOfDay][]model.Task)
	for _, t := range tasks {
		byTod[t.TimeOfDay] = append(byTod[t.TimeOfDay], t)
	}
	var groups []taskGroup
	for _, tod := range model.TimesOfDay {
		list := byTod[tod]
		if len(list) == 0 {
			continue
		}
		sort.SliceStable(list, func(i, j int) bool {
			a, b := list[i], list[j]
			if a.Deadline != nil && b.Deadline != nil && !a.Deadline.Equal(*b.Deadline) {
				return a.Deadline.Before(*b.Deadline)
			}
			if (a.Deadline != nil) != (b.Deadline != nil) {
				return a.Deadline != nil
			}
			return a.ID < b.ID
		})
		groups = append(groups, taskGroup{Name: string(tod), Tasks: list})
	}
	return groups
}

type taskGroup struct {
	Name  string
	Tasks []model.Task
}

func formatTask(task model.Task, now time.Time) string {
	icon := iconDefault
	var extra string
	if task.Deadline != nil {
		left := task.Deadline.Sub(now)
		switch {
		case left < 0:
			icon = iconOverdue
		case left < 48*time.Hour:
			icon = iconDue
		}
		extra = fmt.Sprintf(" · due %s", task.Deadline.In(now.Location()).Format("02 Jan 15:04"))
	}
	return fmt.Sprintf("%s <b>#%d</b> %s <i>(%s, %d min)</i>%s\n",
		icon, task.ID, escape(task.Title), task.Priority, task.EffectiveMinutes(), extra)
}

func formatMonth(year, month int, minutesByDay map[string]int) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📆 <b>%s %d</b>\n", time.Month(month), year))
	if len(minutesByDay) == 0 {
		builder.WriteString("No schedules stored for this month.")
		return builder.String()
	}
	dates := make([]string, 0, len(minutesByDay))
	for d := range minutesByDay {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	total := 0
	for _, d := range dates {
		builder.WriteString(fmt.Sprintf("• <code>%s</code> %d min\n", d, minutesByDay[d]))
		total += minutesByDay[d]
	}
	builder.WriteString(fmt.Sprintf("\nTotal: %d min", total))
	return builder.String()
}
