package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"daily-planner/internal/model"
	"daily-planner/internal/planner"
)

// ReminderService builds human-readable plan summaries for notifications.
type ReminderService struct {
	schedules *ScheduleService
	tasks     *TaskService
}

func NewReminderService(schedules *ScheduleService, tasks *TaskService) *ReminderService {
	return &ReminderService{schedules: schedules, tasks: tasks}
}

// DailySummary renders the plan for day as Telegram HTML, followed by open
// tasks whose deadline is close.
func (s *ReminderService) DailySummary(ctx context.Context, day time.Time, now time.Time) (string, error) {
	if _, err := s.tasks.CleanupExpired(ctx); err != nil {
		return "", err
	}
	schedule, err := s.schedules.GetOrSynthesize(ctx, day)
	if err != nil {
		return "", err
	}
	open, err := s.tasks.ListOpen(ctx)
	if err != nil {
		return "", err
	}

	loc := s.schedules.Location()
	var builder strings.Builder
	builder.WriteString("📋 <b>Daily plan</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", planner.Day(day, loc).Format("Mon, 02 Jan 2006")))
	builder.WriteString(FormatSchedule(schedule, loc))

	due := dueSoon(open, now)
	if len(due) > 0 {
		builder.WriteString("\n⏳ <b>Deadlines</b>\n")
		for _, task := range due {
			builder.WriteString(formatDeadline(task, now))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// FormatSchedule renders schedule items one per line.
func FormatSchedule(schedule *model.Schedule, loc *time.Location) string {
	if schedule == nil || len(schedule.Items) == 0 {
		return "— nothing planned\n"
	}
	var sb strings.Builder
	for _, it := range schedule.Items {
		icon := "▫️"
		if it.TaskID != nil {
			icon = "🔹"
		}
		sb.WriteString(fmt.Sprintf("%s <code>%s–%s</code> %s\n",
			icon,
			it.StartTime.In(loc).Format(model.ClockLayout),
			it.EndTime.In(loc).Format(model.ClockLayout),
			html.EscapeString(strings.TrimSpace(it.Title)),
		))
	}
	sb.WriteString(fmt.Sprintf("\n⏱ %d min planned\n", schedule.TotalMinutes()))
	return sb.String()
}

// dueSoon returns open tasks due within two days, earliest first.
func dueSoon(tasks []model.Task, now time.Time) []model.Task {
	var due []model.Task
	for _, task := range tasks {
		if task.Deadline != nil && task.Deadline.Sub(now) <= 48*time.Hour {
			due = append(due, task)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].Deadline.Before(*due[j].Deadline) })
	return due
}

func formatDeadline(task model.Task, now time.Time) string {
	d := task.Deadline.In(now.Location())
	icon := "⏳"
	if now.After(d) {
		icon = "⚠️"
	}
	hoursLeft := int(d.Sub(now).Hours())
	if hoursLeft < 0 {
		hoursLeft = 0
	}
	return fmt.Sprintf("%s %s\n   ⏰ %s · ≈%dh left\n",
		icon,
		html.EscapeString(strings.TrimSpace(task.Title)),
		d.Format("2006-01-02 15:04"),
		hoursLeft,
	)
}
