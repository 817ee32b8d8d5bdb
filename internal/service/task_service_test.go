package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-planner/internal/config"
	"daily-planner/internal/model"
)

func TestCreateTask_Normalizes(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()

	_, err := env.tasks.CreateTask(ctx, TaskInput{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.tasks.CreateTask(ctx, TaskInput{Title: "x", DurationMinutes: -5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	task, err := env.tasks.CreateTask(ctx, TaskInput{
		Title:     "  Study graphs ",
		Priority:  "high",
		Energy:    "bogus",
		TimeOfDay: "evening",
		TaskType:  "study",
	})
	require.NoError(t, err)
	assert.Equal(t, "Study graphs", task.Title)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	assert.Equal(t, model.EnergyNormal, task.Energy)
	assert.Equal(t, model.TimeEvening, task.TimeOfDay)
	assert.Equal(t, "Study", task.TaskType)
	assert.Equal(t, 30, task.DurationMinutes)
}

func TestUpdateTask_KeepsUnsetFields(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	task, err := env.tasks.CreateTask(ctx, TaskInput{Title: "Report", Priority: "High", DailyTimeMinutes: 60})
	require.NoError(t, err)

	updated, err := env.tasks.UpdateTask(ctx, task.ID, TaskInput{Energy: "Low"})
	require.NoError(t, err)
	assert.Equal(t, "Report", updated.Title)
	assert.Equal(t, model.PriorityHigh, updated.Priority)
	assert.Equal(t, model.EnergyLow, updated.Energy)
	assert.Equal(t, 60, updated.DailyTimeMinutes)

	_, err = env.tasks.UpdateTask(ctx, 999, TaskInput{Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleAndComplete(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	task, err := env.tasks.CreateTask(ctx, TaskInput{Title: "Gym"})
	require.NoError(t, err)

	toggled, err := env.tasks.ToggleTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsCompleted)
	toggled, err = env.tasks.ToggleTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsCompleted)

	done, err := env.tasks.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)

	open, err := env.tasks.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestDeleteTask(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	assert.ErrorIs(t, env.tasks.DeleteTask(ctx, 1), ErrNotFound)

	task := env.addTask(t, model.Task{Title: "A"})
	schedule, err := env.schedules.Synthesize(ctx, day(2024, 3, 1))
	require.NoError(t, err)

	require.NoError(t, env.tasks.DeleteTask(ctx, task.ID))
	_, err = env.tasks.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	past, err := env.schedules.FindSchedule(ctx, schedule.ID)
	require.NoError(t, err, "schedules before today survive invalidation")
	require.Len(t, past.Items, 1)
	assert.Nil(t, past.Items[0].TaskID)
	assert.Equal(t, "A", past.Items[0].Title)
}

func TestMutationsInvalidateFromToday(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	env.addTask(t, model.Task{Title: "A"})
	for _, d := range []time.Time{day(2024, 3, 3), day(2024, 3, 4), day(2024, 3, 5)} {
		_, err := env.schedules.Synthesize(ctx, d)
		require.NoError(t, err)
	}

	_, err := env.tasks.CreateTask(ctx, TaskInput{Title: "B"})
	require.NoError(t, err)

	var days []string
	require.NoError(t, env.db.Model(&model.Schedule{}).Order("day_date").Pluck("day_date", &days).Error)
	assert.Equal(t, []string{"2024-03-03"}, days)
}

func TestMutationsInvalidateAll(t *testing.T) {
	env := newTestEnv(t, config.InvalidateAll)
	ctx := context.Background()
	task := env.addTask(t, model.Task{Title: "A"})
	for _, d := range []time.Time{day(2024, 3, 3), day(2024, 3, 5)} {
		_, err := env.schedules.Synthesize(ctx, d)
		require.NoError(t, err)
	}

	_, err := env.tasks.ToggleTask(ctx, task.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, env.db.Model(&model.Schedule{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCleanupExpired(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	env.addTask(t, model.Task{Title: "overdue", Deadline: ptr(fixedNow.Add(-time.Minute))})
	env.addTask(t, model.Task{Title: "due now", Deadline: ptr(fixedNow)})
	env.addTask(t, model.Task{Title: "later", Deadline: ptr(fixedNow.Add(time.Hour))})
	env.addTask(t, model.Task{Title: "open"})

	n, err := env.tasks.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tasks, err := env.tasks.ListTasks(ctx)
	require.NoError(t, err)
	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	assert.ElementsMatch(t, []string{"later", "open"}, titles)
}

func TestBudget(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	require.NoError(t, env.prefsRepo.Save(ctx, &model.Preferences{FocusWindowStart: "08:00", FocusWindowEnd: "12:00"}))
	env.addTask(t, model.Task{Title: "a", DailyTimeMinutes: 60, TimeOfDay: model.TimeMorning})
	b := env.addTask(t, model.Task{Title: "b", DailyTimeMinutes: 30, TimeOfDay: model.TimeMorning})
	env.addTask(t, model.Task{Title: "c", DailyTimeMinutes: 45})
	env.addTask(t, model.Task{Title: "future", DailyTimeMinutes: 90, BeginDate: ptr(day(2024, 3, 10))})

	budget, err := env.tasks.Budget(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 240, budget.DayBudget)
	assert.Equal(t, 135, budget.TotalUsed)
	assert.Equal(t, 90, budget.PrefTotals[model.TimeMorning])
	assert.Equal(t, 45, budget.PrefTotals[model.TimeAny])
	assert.Equal(t, 0, budget.PrefTotals[model.TimeNight])
	assert.Equal(t, 240, budget.PrefBudgets[model.TimeAny])
	assert.Equal(t, 180, budget.PrefBudgets[model.TimeMorning])

	excluding, err := env.tasks.Budget(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 105, excluding.TotalUsed)
}

func TestParseDeadline(t *testing.T) {
	d, err := ParseDeadline("2024-03-05", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC), *d)

	d, err = ParseDeadline("2024-03-05T14:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), *d)

	d, err = ParseDeadline("2024-03-05T14:30:00+02:00", time.UTC)
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2024, 3, 5, 12, 30, 0, 0, time.UTC)))

	d, err = ParseDeadline(" ", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDeadline("next week", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseBeginDate("2024/03/05", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
