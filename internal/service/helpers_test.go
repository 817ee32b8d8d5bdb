package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"daily-planner/internal/ai"
	"daily-planner/internal/config"
	"daily-planner/internal/model"
	"daily-planner/internal/repository"
)

// fixedNow is a Monday morning.
var fixedNow = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

type fakeRequester struct {
	mu    sync.Mutex
	text  string
	err   error
	delay time.Duration
	calls int
	last  ai.PlanRequest
}

func (f *fakeRequester) RequestPlan(ctx context.Context, req ai.PlanRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.last = req
	text, err, delay := f.text, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return text, err
}

func (f *fakeRequester) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type testEnv struct {
	db           *gorm.DB
	taskRepo     *repository.TaskRepository
	scheduleRepo *repository.ScheduleRepository
	calendarRepo *repository.CalendarRepository
	prefsRepo    *repository.PreferencesRepository
	requester    *fakeRequester
	invalidator  *Invalidator
	tasks        *TaskService
	schedules    *ScheduleService
	calendar     *CalendarService
	prefs        *PreferencesService
	analytics    *AnalyticsService
	reminders    *ReminderService
}

func newTestEnv(t *testing.T, scope string) *testEnv {
	t.Helper()
	db, err := repository.NewDB(":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	now := func() time.Time { return fixedNow }
	env := &testEnv{
		db:           db,
		taskRepo:     repository.NewTaskRepository(db),
		scheduleRepo: repository.NewScheduleRepository(db),
		calendarRepo: repository.NewCalendarRepository(db),
		prefsRepo:    repository.NewPreferencesRepository(db),
		requester:    &fakeRequester{},
	}
	env.invalidator = NewInvalidator(env.scheduleRepo, scope, time.UTC)
	env.invalidator.now = now
	env.tasks = NewTaskService(env.taskRepo, env.prefsRepo, env.invalidator, time.UTC)
	env.tasks.now = now
	env.schedules = NewScheduleService(env.taskRepo, env.scheduleRepo, env.calendarRepo, env.prefsRepo, env.requester, time.UTC, time.Second)
	env.schedules.now = now
	env.calendar = NewCalendarService(env.calendarRepo, env.scheduleRepo, time.UTC)
	env.calendar.now = now
	env.prefs = NewPreferencesService(env.prefsRepo, env.invalidator)
	env.analytics = NewAnalyticsService(env.taskRepo, env.scheduleRepo, time.UTC)
	env.analytics.now = now
	env.reminders = NewReminderService(env.schedules, env.tasks)
	return env
}

func defaultEnv(t *testing.T) *testEnv {
	return newTestEnv(t, config.InvalidateFromToday)
}

// addTask stores a task directly, bypassing invalidation.
func (e *testEnv) addTask(t *testing.T, task model.Task) model.Task {
	t.Helper()
	require.NoError(t, e.taskRepo.Create(context.Background(), &task))
	return task
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

// spans formats items as "title HH:MM-HH:MM" in UTC.
func spans(items []model.ScheduleItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title+" "+it.StartTime.UTC().Format("15:04")+"-"+it.EndTime.UTC().Format("15:04"))
	}
	return out
}
