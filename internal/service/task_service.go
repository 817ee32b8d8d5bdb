package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"daily-planner/internal/model"
	"daily-planner/internal/planner"
	"daily-planner/internal/repository"
)

// TaskInput represents data required to create or edit a task.
// On edit, zero fields keep the stored value.
type TaskInput struct {
	Title            string
	Priority         string
	Energy           string
	DurationMinutes  int
	DailyTimeMinutes int
	BeginDate        *time.Time
	Deadline         *time.Time
	TimeOfDay        string
	TaskType         string
}

func (in TaskInput) validate() error {
	if in.DurationMinutes < 0 || in.DailyTimeMinutes < 0 {
		return fmt.Errorf("minutes must not be negative: %w", ErrInvalidInput)
	}
	return nil
}

var deadlineLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"}

// ParseDeadline accepts RFC3339, a local "YYYY-MM-DDTHH:MM", or a bare date,
// which means the end of that day.
func ParseDeadline(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t, nil
		}
	}
	day, err := planner.ParseDay(raw, loc)
	if err != nil {
		return nil, fmt.Errorf("deadline %q: %w", raw, ErrInvalidInput)
	}
	end := day.Add(24*time.Hour - time.Minute)
	return &end, nil
}

// ParseBeginDate parses an optional YYYY-MM-DD date.
func ParseBeginDate(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	day, err := planner.ParseDay(raw, loc)
	if err != nil {
		return nil, fmt.Errorf("begin date %q: %w", raw, ErrInvalidInput)
	}
	return &day, nil
}

// Budget compares planned minutes of today's tasks with the focus window
// and with fixed per-part-of-day allowances.
type Budget struct {
	DayBudget   int                     `json:"day_budget"`
	TotalUsed   int                     `json:"total_used"`
	PrefTotals  map[model.TimeOfDay]int `json:"pref_totals"`
	PrefBudgets map[model.TimeOfDay]int `json:"pref_budgets"`
}

var partOfDayBudgets = map[model.TimeOfDay]int{
	model.TimeMorning:   180,
	model.TimeNoon:      60,
	model.TimeAfternoon: 240,
	model.TimeEvening:   120,
	model.TimeNight:     240,
}

// TaskService wraps task-related business logic. Every mutation invalidates
// persisted schedules.
type TaskService struct {
	taskRepo    *repository.TaskRepository
	prefsRepo   *repository.PreferencesRepository
	invalidator *Invalidator
	loc         *time.Location
	now         func() time.Time
}

func NewTaskService(taskRepo *repository.TaskRepository, prefsRepo *repository.PreferencesRepository, invalidator *Invalidator, loc *time.Location) *TaskService {
	if loc == nil {
		loc = time.Local
	}
	return &TaskService{taskRepo: taskRepo, prefsRepo: prefsRepo, invalidator: invalidator, loc: loc, now: time.Now}
}

func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	task := model.Task{
		Title:            title,
		Priority:         model.ParsePriority(input.Priority),
		Energy:           model.ParseEnergy(input.Energy),
		DurationMinutes:  input.DurationMinutes,
		DailyTimeMinutes: input.DailyTimeMinutes,
		BeginDate:        input.BeginDate,
		Deadline:         input.Deadline,
		TimeOfDay:        model.ParseTimeOfDay(input.TimeOfDay),
		TaskType:         model.ParseTaskType(input.TaskType),
	}
	if task.DurationMinutes == 0 {
		task.DurationMinutes = model.DefaultTaskMinutes
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	if err := s.invalidate(ctx); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, taskID uint, input TaskInput) (*model.Task, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		task.Title = title
	}
	if input.Priority != "" {
		task.Priority = model.ParsePriority(input.Priority)
	}
	if input.Energy != "" {
		task.Energy = model.ParseEnergy(input.Energy)
	}
	if input.DurationMinutes > 0 {
		task.DurationMinutes = input.DurationMinutes
	}
	if input.DailyTimeMinutes > 0 {
		task.DailyTimeMinutes = input.DailyTimeMinutes
	}
	if input.BeginDate != nil {
		task.BeginDate = input.BeginDate
	}
	if input.Deadline != nil {
		task.Deadline = input.Deadline
	}
	if input.TimeOfDay != "" {
		task.TimeOfDay = model.ParseTimeOfDay(input.TimeOfDay)
	}
	if input.TaskType != "" {
		task.TaskType = model.ParseTaskType(input.TaskType)
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	if err := s.invalidate(ctx); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context) ([]model.Task, error) {
	return s.taskRepo.List(ctx)
}

func (s *TaskService) ListOpen(ctx context.Context) ([]model.Task, error) {
	return s.taskRepo.ListOpen(ctx)
}

func (s *TaskService) GetTask(ctx context.Context, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, lookupErr(err, fmt.Sprintf("task %d", taskID))
	}
	return task, nil
}

// ToggleTask flips the completion flag.
func (s *TaskService) ToggleTask(ctx context.Context, taskID uint) (*model.Task, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.setCompleted(ctx, task, !task.IsCompleted)
}

// CompleteTask marks a task as done.
func (s *TaskService) CompleteTask(ctx context.Context, taskID uint) (*model.Task, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.IsCompleted {
		return task, nil
	}
	return s.setCompleted(ctx, task, true)
}

func (s *TaskService) setCompleted(ctx context.Context, task *model.Task, completed bool) (*model.Task, error) {
	if err := s.taskRepo.SetCompleted(ctx, task, completed); err != nil {
		return nil, err
	}
	if err := s.invalidate(ctx); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task; schedule items that referenced it survive.
func (s *TaskService) DeleteTask(ctx context.Context, taskID uint) error {
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return err
	}
	return s.invalidate(ctx)
}

// CleanupExpired deletes tasks whose deadline has passed.
func (s *TaskService) CleanupExpired(ctx context.Context) (int, error) {
	tasks, err := s.taskRepo.ListWithDeadline(ctx)
	if err != nil {
		return 0, fmt.Errorf("list deadlines: %w", err)
	}
	now := s.now()
	var expired []uint
	for _, t := range tasks {
		if t.Deadline != nil && !t.Deadline.After(now) {
			expired = append(expired, t.ID)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}
	if err := s.taskRepo.Delete(ctx, expired...); err != nil {
		return 0, err
	}
	log.Printf("[info] deleted %d expired tasks", len(expired))
	return len(expired), nil
}

// Budget sums daily minutes of open tasks that have begun by today.
// excludeID leaves one task out, e.g. the one being edited.
func (s *TaskService) Budget(ctx context.Context, excludeID uint) (*Budget, error) {
	prefs, err := s.prefsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	dayBudget := planner.ResolveWindow(prefs.FocusWindowStart, prefs.FocusWindowEnd).Minutes()
	budget := &Budget{
		DayBudget:   dayBudget,
		PrefTotals:  make(map[model.TimeOfDay]int, len(model.TimesOfDay)),
		PrefBudgets: map[model.TimeOfDay]int{model.TimeAny: dayBudget},
	}
	for tod, minutes := range partOfDayBudgets {
		budget.PrefBudgets[tod] = minutes
	}
	for _, tod := range model.TimesOfDay {
		budget.PrefTotals[tod] = 0
	}

	today := planner.DateKey(s.now(), s.loc)
	for _, t := range tasks {
		if t.ID == excludeID {
			continue
		}
		if t.BeginDate != nil && planner.DateKey(*t.BeginDate, s.loc) > today {
			continue
		}
		budget.TotalUsed += t.DailyTimeMinutes
		budget.PrefTotals[t.TimeOfDay] += t.DailyTimeMinutes
	}
	return budget, nil
}

func (s *TaskService) invalidate(ctx context.Context) error {
	if s.invalidator == nil {
		return nil
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate schedules: %w", err)
	}
	return nil
}
