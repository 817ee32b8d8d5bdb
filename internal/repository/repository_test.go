package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"daily-planner/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func scheduleFor(day string, titles ...string) *model.Schedule {
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	s := &model.Schedule{Mode: model.ModeBalanced, DayStart: "09:00", DayEnd: "18:00", DayDate: day}
	for i, title := range titles {
		s.Items = append(s.Items, model.ScheduleItem{
			Title:     title,
			StartTime: base.Add(time.Duration(i) * 30 * time.Minute),
			EndTime:   base.Add(time.Duration(i+1) * 30 * time.Minute),
			Position:  i,
		})
	}
	return s
}

func TestNewDB_SelectsDialector(t *testing.T) {
	assert.True(t, isPostgresDSN("postgres://user:pw@localhost/db"))
	assert.True(t, isPostgresDSN("host=localhost user=planner dbname=planner"))
	assert.False(t, isPostgresDSN("daily_planner.db"))
	assert.True(t, isMemorySQLite("file:test?mode=memory&cache=shared"))
}

func TestEnsureDirForSQLite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ensureDirForSQLite("file:"+dir+"/nested/planner.db?_busy_timeout=5000"))
	assert.DirExists(t, dir+"/nested")
}

func TestTaskRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	a := &model.Task{Title: "write report", Priority: model.PriorityHigh}
	b := &model.Task{Title: "gym"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.SetCompleted(ctx, b, true))

	open, err := repo.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "write report", open[0].Title)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTaskRepository_DeleteClearsItemReference(t *testing.T) {
	db := newTestDB(t)
	tasks := NewTaskRepository(db)
	schedules := NewScheduleRepository(db)
	ctx := context.Background()

	task := &model.Task{Title: "write report"}
	require.NoError(t, tasks.Create(ctx, task))
	s := scheduleFor("2024-03-04", "write report")
	s.Items[0].TaskID = &task.ID
	require.NoError(t, schedules.ReplaceForDate(ctx, s))

	require.NoError(t, tasks.Delete(ctx, task.ID))

	got, err := schedules.FindByID(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Nil(t, got.Items[0].TaskID)
	assert.Equal(t, "write report", got.Items[0].Title)
}

func TestScheduleRepository_ReplaceForDate(t *testing.T) {
	db := newTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	first := scheduleFor("2024-03-04", "a", "b")
	require.NoError(t, repo.ReplaceForDate(ctx, first))
	other := scheduleFor("2024-03-05", "c")
	require.NoError(t, repo.ReplaceForDate(ctx, other))
	second := scheduleFor("2024-03-04", "d")
	require.NoError(t, repo.ReplaceForDate(ctx, second))

	latest, err := repo.LatestForDate(ctx, "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	require.Len(t, latest.Items, 1)
	assert.Equal(t, "d", latest.Items[0].Title)

	var schedules, items int64
	require.NoError(t, db.Model(&model.Schedule{}).Where("day_date = ?", "2024-03-04").Count(&schedules).Error)
	require.NoError(t, db.Model(&model.ScheduleItem{}).Count(&items).Error)
	assert.Equal(t, int64(1), schedules)
	assert.Equal(t, int64(2), items, "old items are removed with their schedule")

	_, err = repo.FindByID(ctx, first.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestScheduleRepository_ItemsComeBackByPosition(t *testing.T) {
	db := newTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	s := scheduleFor("2024-03-04", "a", "b", "c")
	require.NoError(t, repo.ReplaceForDate(ctx, s))
	items := s.Items
	items[0].Position, items[2].Position = 2, 0
	require.NoError(t, repo.UpdateItemTimes(ctx, items))

	got, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "c", got.Items[0].Title)
	assert.Equal(t, "b", got.Items[1].Title)
	assert.Equal(t, "a", got.Items[2].Title)
}

func TestScheduleRepository_Ranges(t *testing.T) {
	db := newTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	for _, day := range []string{"2024-02-29", "2024-03-01", "2024-03-15", "2024-03-31", "2024-04-01"} {
		require.NoError(t, repo.ReplaceForDate(ctx, scheduleFor(day, "x")))
	}

	march, err := repo.ListBetween(ctx, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Len(t, march, 3)

	recent, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2024-04-01", recent[0].DayDate)

	require.NoError(t, repo.DeleteFrom(ctx, "2024-03-15"))
	left, err := repo.ListBetween(ctx, "2000-01-01", "2100-01-01")
	require.NoError(t, err)
	assert.Len(t, left, 2)

	require.NoError(t, repo.DeleteAll(ctx))
	left, err = repo.ListBetween(ctx, "2000-01-01", "2100-01-01")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestCalendarRepository_ListForDate(t *testing.T) {
	db := newTestDB(t)
	repo := NewCalendarRepository(db)
	ctx := context.Background()

	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateBatch(ctx, []model.CalendarEvent{
		{Title: "late", StartTime: start.Add(5 * time.Hour), EndTime: start.Add(6 * time.Hour), Source: model.SourceICS, DayDate: "2024-03-04"},
		{Title: "standup", StartTime: start, EndTime: start.Add(15 * time.Minute), Source: model.SourceICS, DayDate: "2024-03-04"},
		{Title: "tomorrow", StartTime: start.AddDate(0, 0, 1), EndTime: start.AddDate(0, 0, 1).Add(time.Hour), Source: model.SourceICS, DayDate: "2024-03-05"},
	}))

	events, err := repo.ListForDate(ctx, "2024-03-04")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "standup", events[0].Title)

	all, err := repo.List(ctx, 200)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPreferencesRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewPreferencesRepository(db)
	ctx := context.Background()

	prefs, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, prefs.FocusWindowStart)
	assert.Equal(t, "Mon,Tue,Wed,Thu,Fri", prefs.WorkingDays)

	prefs.FocusWindowStart, prefs.FocusWindowEnd = "08:00", "16:00"
	require.NoError(t, repo.Save(ctx, prefs))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "08:00", got.FocusWindowStart)
	assert.Equal(t, "16:00", got.FocusWindowEnd)
}

func TestUserRepository_Subscribers(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	ann, err := repo.UpsertFromTelegram(ctx, 100, "Ann", "", "ann")
	require.NoError(t, err)
	_, err = repo.UpsertFromTelegram(ctx, 200, "Bo", "", "bo")
	require.NoError(t, err)
	require.NoError(t, repo.SetDailyPlan(ctx, ann, false))

	again, err := repo.UpsertFromTelegram(ctx, 100, "Ann", "Lee", "ann")
	require.NoError(t, err)
	assert.Equal(t, ann.ID, again.ID)

	subs, err := repo.ListPlanSubscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(200), subs[0].TelegramID)
}
