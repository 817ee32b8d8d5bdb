package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"daily-planner/internal/ai"
	"daily-planner/internal/model"
)

func TestSynthesize_PacksWhenPlanIsEmpty(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	b := env.addTask(t, model.Task{Title: "B", DurationMinutes: 30, TimeOfDay: model.TimeMorning, Priority: model.PriorityLow})
	a := env.addTask(t, model.Task{Title: "A", DurationMinutes: 60, TimeOfDay: model.TimeMorning, Priority: model.PriorityHigh})

	schedule, err := env.schedules.Synthesize(ctx, day(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", schedule.DayDate)
	assert.Equal(t, "09:00", schedule.DayStart)
	assert.Equal(t, "18:00", schedule.DayEnd)
	assert.Equal(t, model.ModeBalanced, schedule.Mode)
	assert.Equal(t, []string{"A 09:00-10:00", "B 10:00-10:30"}, spans(schedule.Items))
	require.NotNil(t, schedule.Items[0].TaskID)
	assert.Equal(t, a.ID, *schedule.Items[0].TaskID)
	assert.Equal(t, b.ID, *schedule.Items[1].TaskID)

	stored, err := env.scheduleRepo.LatestForDate(ctx, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, schedule.ID, stored.ID)
	assert.Equal(t, []string{"A 09:00-10:00", "B 10:00-10:30"}, spans(stored.Items))
	assert.Equal(t, 0, stored.Items[0].Position)
	assert.Equal(t, 1, stored.Items[1].Position)
}

func TestSynthesize_SendsOrderedTasksToRequester(t *testing.T) {
	env := defaultEnv(t)
	deadline := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	env.addTask(t, model.Task{Title: "evening walk", TimeOfDay: model.TimeEvening, DurationMinutes: 30})
	env.addTask(t, model.Task{Title: "report", TimeOfDay: model.TimeMorning, DailyTimeMinutes: 90, DurationMinutes: 30, Priority: model.PriorityHigh, Deadline: &deadline})

	_, err := env.schedules.Synthesize(context.Background(), day(2024, 3, 5))
	require.NoError(t, err)

	req := env.requester.last
	assert.Equal(t, "Balanced", req.Mode)
	assert.Equal(t, "09:00", req.DayStart)
	assert.Equal(t, "18:00", req.DayEnd)
	require.Len(t, req.Tasks, 2)
	assert.Equal(t, "report", req.Tasks[0].Title)
	assert.Equal(t, 90, req.Tasks[0].Minutes)
	require.NotNil(t, req.Tasks[0].Deadline)
	assert.True(t, req.Tasks[0].Deadline.Equal(deadline))
	assert.Equal(t, "evening walk", req.Tasks[1].Title)
}

func TestSynthesize_StructuredPlan(t *testing.T) {
	env := defaultEnv(t)
	report := env.addTask(t, model.Task{Title: "Write report"})
	env.requester.text = "```json\n" + `{"items":[
		{"title":"  write REPORT ","start":"09:30","end":"11:00"},
		{"title":"Too early","start":"07:00","end":"08:30"},
		{"title":"","start":"11:00","end":"12:00"},
		{"title":"Lunch","start":"12:00","end":"25:00"},
		{"title":"Wrap up","start":"17:30","end":"19:00"}
	],"notes":"n"}` + "\n```"

	schedule, err := env.schedules.Synthesize(context.Background(), day(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"write REPORT 09:30-11:00", "Wrap up 17:30-18:00"}, spans(schedule.Items))
	require.NotNil(t, schedule.Items[0].TaskID)
	assert.Equal(t, report.ID, *schedule.Items[0].TaskID)
	assert.Nil(t, schedule.Items[1].TaskID)
	assert.Equal(t, 1, schedule.Items[1].Position)
	assert.Contains(t, schedule.PlanText, `"notes":"n"`)
}

func TestSynthesize_TextPlan(t *testing.T) {
	env := defaultEnv(t)
	env.addTask(t, model.Task{Title: "Email"})
	env.requester.text = "Here is your day:\n" +
		"09:00 - 10:00 | Deep work\n" +
		"not a plan line\n" +
		"10:00–10:30 Email\n" +
		"19:00-20:00 Gym\n"

	schedule, err := env.schedules.Synthesize(context.Background(), day(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"Deep work 09:00-10:00", "Email 10:00-10:30"}, spans(schedule.Items))
	assert.Nil(t, schedule.Items[0].TaskID)
	assert.NotNil(t, schedule.Items[1].TaskID)
}

func TestSynthesize_RequesterErrorFallsBackToPacker(t *testing.T) {
	env := defaultEnv(t)
	env.addTask(t, model.Task{Title: "A", DurationMinutes: 45})
	env.requester.err = errors.New("upstream said 09:00-17:00 Busy")

	schedule, err := env.schedules.Synthesize(context.Background(), day(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"A 09:00-09:45"}, spans(schedule.Items))
	assert.Contains(t, schedule.PlanText, "Plan generator error")
}

func TestSynthesize_NotConfiguredAndTimeout(t *testing.T) {
	env := defaultEnv(t)
	env.addTask(t, model.Task{Title: "A"})
	env.schedules.requester = ai.Disabled{}

	schedule, err := env.schedules.Synthesize(context.Background(), day(2024, 3, 5))
	require.NoError(t, err)
	assert.Len(t, schedule.Items, 1)
	assert.Contains(t, schedule.PlanText, "not configured")

	env.schedules.requester = env.requester
	env.schedules.timeout = 20 * time.Millisecond
	env.requester.delay = time.Second
	env.requester.text = `{"items":[{"title":"late","start":"10:00","end":"11:00"}]}`
	schedule, err = env.schedules.Synthesize(context.Background(), day(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"A 09:00-09:30"}, spans(schedule.Items))
	assert.Contains(t, schedule.PlanText, "timed out")
}

func TestSynthesize_SkipsBusyIntervalsAndStopsAtWindowEnd(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	require.NoError(t, env.prefsRepo.Save(ctx, &model.Preferences{FocusWindowStart: "09:00", FocusWindowEnd: "12:00"}))
	require.NoError(t, env.calendarRepo.CreateBatch(ctx, []model.CalendarEvent{{
		Title:     "Standup",
		StartTime: time.Date(2024, 3, 5, 9, 45, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 3, 5, 10, 15, 0, 0, time.UTC),
		DayDate:   "2024-03-05",
	}}))
	env.addTask(t, model.Task{Title: "A", DurationMinutes: 60, Priority: model.PriorityHigh})
	env.addTask(t, model.Task{Title: "B", DurationMinutes: 120, Priority: model.PriorityMedium})
	env.addTask(t, model.Task{Title: "C", DurationMinutes: 15, Priority: model.PriorityLow})

	schedule, err := env.schedules.Synthesize(ctx, day(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"A 10:15-11:15"}, spans(schedule.Items), "B does not fit and packing stops there")
	assert.Equal(t, "12:00", schedule.DayEnd)
}

func TestSynthesize_OnlyActiveTasks(t *testing.T) {
	env := defaultEnv(t)
	env.addTask(t, model.Task{Title: "later", BeginDate: ptr(day(2024, 3, 6))})
	env.addTask(t, model.Task{Title: "gone", Deadline: ptr(time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC))})
	env.addTask(t, model.Task{Title: "due today", Deadline: ptr(time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC))})
	done := env.addTask(t, model.Task{Title: "done"})
	require.NoError(t, env.taskRepo.SetCompleted(context.Background(), &done, true))

	schedule, err := env.schedules.Synthesize(context.Background(), day(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"due today 09:00-09:30"}, spans(schedule.Items))
}

func TestSynthesize_ReplacesStoredSchedule(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	env.addTask(t, model.Task{Title: "A"})

	first, err := env.schedules.Synthesize(ctx, day(2024, 3, 5))
	require.NoError(t, err)
	second, err := env.schedules.Synthesize(ctx, day(2024, 3, 5))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	var count int64
	require.NoError(t, env.db.Model(&model.Schedule{}).Where("day_date = ?", "2024-03-05").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSynthesize_ConcurrentCallsLeaveOneSchedule(t *testing.T) {
	env := defaultEnv(t)
	env.addTask(t, model.Task{Title: "A"})
	env.requester.delay = 30 * time.Millisecond

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.schedules.Synthesize(context.Background(), day(2024, 3, 5))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	var count int64
	require.NoError(t, env.db.Model(&model.Schedule{}).Where("day_date = ?", "2024-03-05").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSynthesize_CancelledCallerDoesNotFailOthers(t *testing.T) {
	env := defaultEnv(t)
	env.addTask(t, model.Task{Title: "A"})
	env.requester.delay = 100 * time.Millisecond

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := env.schedules.Synthesize(ctxA, day(2024, 3, 5))
		errA <- err
	}()
	time.Sleep(10 * time.Millisecond)

	type result struct {
		schedule *model.Schedule
		err      error
	}
	resB := make(chan result, 1)
	go func() {
		schedule, err := env.schedules.Synthesize(context.Background(), day(2024, 3, 5))
		resB <- result{schedule, err}
	}()

	time.Sleep(10 * time.Millisecond)
	cancelA()

	assert.ErrorIs(t, <-errA, context.Canceled)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, []string{"A 09:00-09:30"}, spans(b.schedule.Items))
	assert.Equal(t, 1, env.requester.Calls(), "both callers share one run")

	stored, err := env.scheduleRepo.LatestForDate(context.Background(), "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, b.schedule.ID, stored.ID)
}

// countQueries counts SELECTs against table from now on.
func countQueries(t *testing.T, db *gorm.DB, table string) *atomic.Int64 {
	t.Helper()
	var n atomic.Int64
	name := "test:count_" + table
	require.NoError(t, db.Callback().Query().After("gorm:query").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			n.Add(1)
		}
	}))
	return &n
}

func TestGetOrSynthesize_ReadsTasksOnce(t *testing.T) {
	env := defaultEnv(t)
	env.addTask(t, model.Task{Title: "A"})
	taskReads := countQueries(t, env.db, "tasks")
	prefReads := countQueries(t, env.db, "preferences")

	schedule, err := env.schedules.GetOrSynthesize(context.Background(), day(2024, 3, 5))
	require.NoError(t, err)
	require.NotNil(t, schedule)
	assert.Equal(t, int64(1), taskReads.Load())
	assert.Equal(t, int64(1), prefReads.Load())

	taskReads.Store(0)
	prefReads.Store(0)
	view, err := env.schedules.DayView(context.Background(), day(2024, 3, 6))
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	assert.Equal(t, int64(1), taskReads.Load())
	assert.Equal(t, int64(1), prefReads.Load())
}

func TestGetOrSynthesize(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()

	none, err := env.schedules.GetOrSynthesize(ctx, day(2024, 3, 5))
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.Equal(t, 0, env.requester.Calls(), "no active tasks means no plan request")

	env.addTask(t, model.Task{Title: "A"})
	first, err := env.schedules.GetOrSynthesize(ctx, day(2024, 3, 5))
	require.NoError(t, err)
	require.NotNil(t, first)

	env.addTask(t, model.Task{Title: "B"})
	again, err := env.schedules.GetOrSynthesize(ctx, day(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, again.Items, 1, "stored schedule is returned unchanged")
	assert.Equal(t, 1, env.requester.Calls())
}

func TestReorder(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	env.addTask(t, model.Task{Title: "short", DurationMinutes: 30, Priority: model.PriorityHigh})
	env.addTask(t, model.Task{Title: "long", DurationMinutes: 45, Priority: model.PriorityLow})

	schedule, err := env.schedules.Synthesize(ctx, day(2024, 3, 12))
	require.NoError(t, err)
	require.Equal(t, []string{"short 09:00-09:30", "long 09:30-10:15"}, spans(schedule.Items))
	short, long := schedule.Items[0], schedule.Items[1]

	items, err := env.schedules.Reorder(ctx, schedule.ID, []uint{long.ID, 9999, short.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"long 09:00-09:45", "short 09:45-10:15"}, spans(items))
	assert.Equal(t, 0, items[0].Position)
	assert.Equal(t, 1, items[1].Position)
	assert.Equal(t, "2024-03-12", items[0].StartTime.UTC().Format(model.DateLayout), "anchored on the schedule's own date")

	stored, err := env.schedules.FindSchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"long 09:00-09:45", "short 09:45-10:15"}, spans(stored.Items))
}

func TestReorder_RejectsBadPermutations(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	env.addTask(t, model.Task{Title: "a"})
	env.addTask(t, model.Task{Title: "b"})
	schedule, err := env.schedules.Synthesize(ctx, day(2024, 3, 5))
	require.NoError(t, err)
	a, b := schedule.Items[0], schedule.Items[1]

	_, err = env.schedules.Reorder(ctx, schedule.ID, []uint{b.ID})
	assert.ErrorIs(t, err, ErrInvalidOrder)
	_, err = env.schedules.Reorder(ctx, schedule.ID, []uint{b.ID, b.ID, a.ID})
	assert.ErrorIs(t, err, ErrInvalidOrder)
	_, err = env.schedules.Reorder(ctx, 4242, []uint{a.ID, b.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := env.schedules.FindSchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, spans(schedule.Items), spans(stored.Items), "rejected reorders do not mutate")
}

func TestDayView(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	env.addTask(t, model.Task{Title: "today"})
	env.addTask(t, model.Task{Title: "in two days", BeginDate: ptr(day(2024, 3, 7))})
	env.addTask(t, model.Task{Title: "tomorrow", BeginDate: ptr(day(2024, 3, 6))})
	require.NoError(t, env.calendarRepo.CreateBatch(ctx, []model.CalendarEvent{{
		Title:     "Dentist",
		StartTime: time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 3, 5, 16, 0, 0, 0, time.UTC),
		DayDate:   "2024-03-05",
	}}))

	view, err := env.schedules.DayView(ctx, day(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", view.Date)
	assert.True(t, view.HasTasksForDate)
	assert.True(t, view.HasTasksAny)
	assert.Equal(t, []string{"today 09:00-09:30"}, spans(view.Items))
	require.Len(t, view.Events, 1)
	assert.Equal(t, "Dentist", view.Events[0].Title)
	require.Len(t, view.Upcoming, 2)
	assert.Equal(t, "tomorrow", view.Upcoming[0].Title)
	assert.Equal(t, 1, view.Upcoming[0].InDays)
	assert.Equal(t, "2024-03-07", view.Upcoming[1].BeginDate)

	empty, err := env.schedules.DayView(ctx, day(2024, 2, 1))
	require.NoError(t, err)
	assert.NotNil(t, empty.Events)
	assert.Empty(t, empty.Events)
}

func TestMonthSummary(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	env.addTask(t, model.Task{Title: "A", DurationMinutes: 60})
	env.addTask(t, model.Task{Title: "B", DurationMinutes: 45})
	for _, d := range []time.Time{day(2024, 3, 1), day(2024, 3, 31), day(2024, 4, 1)} {
		_, err := env.schedules.Synthesize(ctx, d)
		require.NoError(t, err)
	}

	summary, err := env.schedules.MonthSummary(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"2024-03-01": 105, "2024-03-31": 105}, summary.MinutesByDay)

	current, err := env.schedules.MonthSummary(ctx, 2024, 13)
	require.NoError(t, err)
	assert.Equal(t, 2024, current.Year)
	assert.Equal(t, 3, current.Month)
}

func TestParseDate(t *testing.T) {
	env := defaultEnv(t)
	today, err := env.schedules.ParseDate("")
	require.NoError(t, err)
	assert.Equal(t, day(2024, 3, 4), today)

	d, err := env.schedules.ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, day(2024, 2, 29), d)

	_, err = env.schedules.ParseDate("29.02.2024")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
