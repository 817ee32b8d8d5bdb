package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"daily-planner/internal/ai"
	"daily-planner/internal/model"
	"daily-planner/internal/planner"
	"daily-planner/internal/repository"
)

const maxUpcoming = 20

// ScheduleService synthesizes, stores and reorders day schedules.
type ScheduleService struct {
	taskRepo     *repository.TaskRepository
	scheduleRepo *repository.ScheduleRepository
	calendarRepo *repository.CalendarRepository
	prefsRepo    *repository.PreferencesRepository
	requester    ai.PlanRequester
	loc          *time.Location
	timeout      time.Duration
	mode         model.Mode
	tiers        []planner.Tier
	inflight     singleflight.Group
	now          func() time.Time
}

func NewScheduleService(
	taskRepo *repository.TaskRepository,
	scheduleRepo *repository.ScheduleRepository,
	calendarRepo *repository.CalendarRepository,
	prefsRepo *repository.PreferencesRepository,
	requester ai.PlanRequester,
	loc *time.Location,
	timeout time.Duration,
) *ScheduleService {
	if loc == nil {
		loc = time.Local
	}
	if requester == nil {
		requester = ai.Disabled{}
	}
	return &ScheduleService{
		taskRepo:     taskRepo,
		scheduleRepo: scheduleRepo,
		calendarRepo: calendarRepo,
		prefsRepo:    prefsRepo,
		requester:    requester,
		loc:          loc,
		timeout:      timeout,
		mode:         model.ModeBalanced,
		tiers:        planner.DefaultTiers(),
		now:          time.Now,
	}
}

// Location is the zone dates are interpreted in.
func (s *ScheduleService) Location() *time.Location {
	return s.loc
}

// Today returns midnight of the current date.
func (s *ScheduleService) Today() time.Time {
	return planner.Day(s.now(), s.loc)
}

// ParseDate parses YYYY-MM-DD; an empty string means today.
func (s *ScheduleService) ParseDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return s.Today(), nil
	}
	day, err := planner.ParseDay(raw, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", raw, ErrInvalidInput)
	}
	return day, nil
}

// planState is the task and preference snapshot a synthesis works from.
type planState struct {
	window planner.Window
	open   []model.Task
	active []model.Task
}

// loadState reads preferences and open tasks once for day.
func (s *ScheduleService) loadState(ctx context.Context, day time.Time) (*planState, error) {
	window, err := s.window(ctx)
	if err != nil {
		return nil, err
	}
	open, err := s.taskRepo.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return &planState{window: window, open: open, active: planner.ActiveOn(open, day)}, nil
}

// Synthesize builds a fresh schedule for day and replaces any stored one.
// Concurrent calls for the same date share one run. The shared run does not
// depend on any single caller's context; a caller that gives up gets its
// context error while the others still receive the schedule.
func (s *ScheduleService) Synthesize(ctx context.Context, day time.Time) (*model.Schedule, error) {
	return s.run(ctx, planner.Day(day, s.loc), nil)
}

func (s *ScheduleService) run(ctx context.Context, day time.Time, state *planState) (*model.Schedule, error) {
	key := planner.DateKey(day, s.loc)
	runCtx := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(key, func() (interface{}, error) {
		st := state
		if st == nil {
			var err error
			if st, err = s.loadState(runCtx, day); err != nil {
				return nil, err
			}
		}
		return s.synthesize(runCtx, day, key, st)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Schedule), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetOrSynthesize returns the stored schedule for day, synthesizing one when
// none exists. It returns nil when there is nothing stored and no task is
// active on day.
func (s *ScheduleService) GetOrSynthesize(ctx context.Context, day time.Time) (*model.Schedule, error) {
	return s.getOrSynthesize(ctx, planner.Day(day, s.loc), nil)
}

func (s *ScheduleService) getOrSynthesize(ctx context.Context, day time.Time, state *planState) (*model.Schedule, error) {
	existing, err := s.scheduleRepo.LatestForDate(ctx, planner.DateKey(day, s.loc))
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("find schedule: %w", err)
	}

	if state == nil {
		if state, err = s.loadState(ctx, day); err != nil {
			return nil, err
		}
	}
	if len(state.active) == 0 {
		return nil, nil
	}
	return s.run(ctx, day, state)
}

func (s *ScheduleService) synthesize(ctx context.Context, day time.Time, key string, state *planState) (*model.Schedule, error) {
	window := state.window
	ordered := planner.OrderTasks(state.active)
	busy, err := s.busy(ctx, key)
	if err != nil {
		return nil, err
	}

	in := planner.Input{Day: day, Window: window, Tasks: ordered, Busy: busy}
	tiers := s.tiers
	text, err := s.requestPlan(ctx, ordered, window)
	if err != nil {
		log.Printf("[warn] plan request for %s: %v", key, err)
		in.PlanText = diagnostic(err)
		tiers = []planner.Tier{planner.PackerTier}
	} else {
		in.PlanText = text
	}
	blocks, source := planner.Build(in, tiers...)

	schedule := &model.Schedule{
		Mode:     s.mode,
		DayStart: window.Start.String(),
		DayEnd:   window.End.String(),
		PlanText: in.PlanText,
		DayDate:  key,
		Items:    make([]model.ScheduleItem, 0, len(blocks)),
	}
	for _, b := range blocks {
		item := model.ScheduleItem{
			Title:     b.Title,
			StartTime: b.Start,
			EndTime:   b.End,
			Position:  b.Position,
		}
		if b.Task != nil {
			id := b.Task.ID
			item.TaskID = &id
		}
		schedule.Items = append(schedule.Items, item)
	}

	if err := s.scheduleRepo.ReplaceForDate(ctx, schedule); err != nil {
		return nil, err
	}
	log.Printf("[info] schedule %s: %d items from %s plan (%d active tasks)", key, len(schedule.Items), source, len(ordered))
	return schedule, nil
}

func (s *ScheduleService) requestPlan(ctx context.Context, tasks []model.Task, window planner.Window) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	req := ai.PlanRequest{
		Mode:     string(s.mode),
		DayStart: window.Start.String(),
		DayEnd:   window.End.String(),
		Tasks:    make([]ai.TaskSummary, 0, len(tasks)),
	}
	for _, t := range tasks {
		req.Tasks = append(req.Tasks, ai.TaskSummary{
			Title:    t.Title,
			Priority: string(t.Priority),
			Minutes:  t.EffectiveMinutes(),
			Energy:   string(t.Energy),
			Deadline: t.Deadline,
		})
	}
	return s.requester.RequestPlan(ctx, req)
}

// diagnostic is stored as plan text when no plan could be requested.
func diagnostic(err error) string {
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		return "Plan generator is not configured; tasks were packed into the focus window."
	case errors.Is(err, context.DeadlineExceeded):
		return "Plan generator timed out; tasks were packed into the focus window."
	default:
		return "Plan generator error: " + err.Error()
	}
}

func (s *ScheduleService) window(ctx context.Context) (planner.Window, error) {
	prefs, err := s.prefsRepo.Get(ctx)
	if err != nil {
		return planner.Window{}, err
	}
	return planner.ResolveWindow(prefs.FocusWindowStart, prefs.FocusWindowEnd), nil
}

func (s *ScheduleService) busy(ctx context.Context, key string) ([]planner.Interval, error) {
	events, err := s.calendarRepo.ListForDate(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	busy := make([]planner.Interval, 0, len(events))
	for _, ev := range events {
		busy = append(busy, planner.Interval{Start: ev.StartTime, End: ev.EndTime})
	}
	return busy, nil
}

// Reorder assigns new positions from itemIDs and retimes the schedule back
// to back from its own date and day start. Ids of other schedules are
// ignored; the rest must name every item exactly once.
func (s *ScheduleService) Reorder(ctx context.Context, scheduleID uint, itemIDs []uint) ([]model.ScheduleItem, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, lookupErr(err, fmt.Sprintf("schedule %d", scheduleID))
	}

	index := make(map[uint]int, len(schedule.Items))
	for i, it := range schedule.Items {
		index[it.ID] = i
	}
	seen := make(map[uint]bool, len(itemIDs))
	order := make([]uint, 0, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := index[id]; !ok {
			continue
		}
		if seen[id] {
			return nil, fmt.Errorf("item %d listed twice: %w", id, ErrInvalidOrder)
		}
		seen[id] = true
		order = append(order, id)
	}
	if len(order) != len(schedule.Items) {
		return nil, fmt.Errorf("%d of %d items listed: %w", len(order), len(schedule.Items), ErrInvalidOrder)
	}

	items := make([]model.ScheduleItem, len(schedule.Items))
	copy(items, schedule.Items)
	for pos, id := range order {
		items[index[id]].Position = pos
	}
	items = planner.Retime(items, s.anchor(schedule))

	if err := s.scheduleRepo.UpdateItemTimes(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *ScheduleService) anchor(schedule *model.Schedule) time.Time {
	day, err := planner.ParseDay(schedule.DayDate, s.loc)
	if err != nil {
		day = s.Today()
	}
	start, ok := planner.ParseClock(schedule.DayStart)
	if !ok {
		start = planner.DefaultWindow.Start
	}
	return start.On(day)
}

// UpcomingTask is an open task that begins after the viewed date.
type UpcomingTask struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	BeginDate string `json:"begin_date"`
	InDays    int    `json:"in_days"`
}

// DayView is everything a client needs to render one date.
type DayView struct {
	Date            string                `json:"date"`
	DayStart        string                `json:"day_start"`
	DayEnd          string                `json:"day_end"`
	Schedule        *model.Schedule       `json:"schedule,omitempty"`
	Items           []model.ScheduleItem  `json:"items"`
	Events          []model.CalendarEvent `json:"events"`
	Upcoming        []UpcomingTask        `json:"upcoming"`
	HasTasksForDate bool                  `json:"has_tasks_for_date"`
	HasTasksAny     bool                  `json:"has_tasks_any"`
}

// DayView gets or synthesizes the schedule for day and adds the calendar
// events of the date and tasks that begin later.
func (s *ScheduleService) DayView(ctx context.Context, day time.Time) (*DayView, error) {
	day = planner.Day(day, s.loc)
	key := planner.DateKey(day, s.loc)

	state, err := s.loadState(ctx, day)
	if err != nil {
		return nil, err
	}
	schedule, err := s.getOrSynthesize(ctx, day, state)
	if err != nil {
		return nil, err
	}
	window, open := state.window, state.open
	events, err := s.calendarRepo.ListForDate(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	view := &DayView{
		Date:            key,
		DayStart:        window.Start.String(),
		DayEnd:          window.End.String(),
		Schedule:        schedule,
		Items:           []model.ScheduleItem{},
		Events:          events,
		Upcoming:        upcoming(open, day, s.loc),
		HasTasksForDate: len(state.active) > 0,
		HasTasksAny:     len(open) > 0,
	}
	if schedule != nil {
		view.Items = schedule.Items
	}
	if view.Events == nil {
		view.Events = []model.CalendarEvent{}
	}
	return view, nil
}

func upcoming(open []model.Task, day time.Time, loc *time.Location) []UpcomingTask {
	key := planner.DateKey(day, loc)
	var later []model.Task
	for _, t := range open {
		if t.BeginDate != nil && planner.DateKey(*t.BeginDate, loc) > key {
			later = append(later, t)
		}
	}
	sort.SliceStable(later, func(i, j int) bool { return later[i].BeginDate.Before(*later[j].BeginDate) })
	if len(later) > maxUpcoming {
		later = later[:maxUpcoming]
	}

	out := make([]UpcomingTask, 0, len(later))
	for _, t := range later {
		begin := planner.Day(*t.BeginDate, loc)
		out = append(out, UpcomingTask{
			ID:        t.ID,
			Title:     t.Title,
			BeginDate: planner.DateKey(begin, loc),
			InDays:    int(begin.Sub(day).Hours()/24 + 0.5),
		})
	}
	return out
}

// MonthSummary holds total scheduled minutes per date of one month.
type MonthSummary struct {
	Year         int            `json:"year"`
	Month        int            `json:"month"`
	MinutesByDay map[string]int `json:"minutes_by_day"`
}

// MonthSummary sums item minutes of every stored schedule in the month.
// An out of range year or month selects the current month.
func (s *ScheduleService) MonthSummary(ctx context.Context, year, month int) (*MonthSummary, error) {
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		today := s.Today()
		year, month = today.Year(), int(today.Month())
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	last := first.AddDate(0, 1, -1)

	schedules, err := s.scheduleRepo.ListBetween(ctx, planner.DateKey(first, s.loc), planner.DateKey(last, s.loc))
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	summary := &MonthSummary{Year: year, Month: month, MinutesByDay: make(map[string]int, len(schedules))}
	for _, sch := range schedules {
		summary.MinutesByDay[sch.DayDate] = sch.TotalMinutes()
	}
	return summary, nil
}

// FindSchedule returns a stored schedule with its items.
func (s *ScheduleService) FindSchedule(ctx context.Context, scheduleID uint) (*model.Schedule, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, lookupErr(err, fmt.Sprintf("schedule %d", scheduleID))
	}
	return schedule, nil
}
