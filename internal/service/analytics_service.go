package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"daily-planner/internal/model"
	"daily-planner/internal/planner"
	"daily-planner/internal/repository"
)

const (
	analyticsDays      = 14
	analyticsSchedules = 50
)

// DayMinutes is the scheduled time of one date.
type DayMinutes struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

// DayCount counts tasks created on one date.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Analytics summarizes tasks and recent schedules.
type Analytics struct {
	TotalTasks            int                     `json:"total_tasks"`
	CompletedTasks        int                     `json:"completed_tasks"`
	LatestScheduleMinutes int                     `json:"latest_schedule_minutes"`
	OpenByPriority        map[model.Priority]int  `json:"open_by_priority"`
	OpenByEnergy          map[model.Energy]int    `json:"open_by_energy"`
	OpenByTimeOfDay       map[model.TimeOfDay]int `json:"open_by_time_of_day"`
	ByTaskType            map[string]int          `json:"by_task_type"`
	ScheduleMinutes       []DayMinutes            `json:"schedule_minutes"`
	TasksCreated          []DayCount              `json:"tasks_created"`
	ScheduleModes         map[model.Mode]int      `json:"schedule_modes"`
}

type AnalyticsService struct {
	taskRepo     *repository.TaskRepository
	scheduleRepo *repository.ScheduleRepository
	loc          *time.Location
	now          func() time.Time
}

func NewAnalyticsService(taskRepo *repository.TaskRepository, scheduleRepo *repository.ScheduleRepository, loc *time.Location) *AnalyticsService {
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsService{taskRepo: taskRepo, scheduleRepo: scheduleRepo, loc: loc, now: time.Now}
}

func (s *AnalyticsService) Summary(ctx context.Context) (*Analytics, error) {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	schedules, err := s.scheduleRepo.ListRecent(ctx, analyticsSchedules)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	out := &Analytics{
		OpenByPriority:  map[model.Priority]int{model.PriorityHigh: 0, model.PriorityMedium: 0, model.PriorityLow: 0},
		OpenByEnergy:    map[model.Energy]int{model.EnergyHigh: 0, model.EnergyNormal: 0, model.EnergyLow: 0},
		OpenByTimeOfDay: make(map[model.TimeOfDay]int, len(model.TimesOfDay)),
		ByTaskType:      make(map[string]int, len(model.TaskTypes)),
		ScheduleModes:   map[model.Mode]int{model.ModeBalanced: 0, model.ModeDeepWork: 0, model.ModeQuickWin: 0},
	}
	for _, tod := range model.TimesOfDay {
		out.OpenByTimeOfDay[tod] = 0
	}
	for _, tt := range model.TaskTypes {
		out.ByTaskType[tt] = 0
	}

	created := make(map[string]int)
	for _, t := range tasks {
		out.TotalTasks++
		out.ByTaskType[t.TaskType]++
		created[planner.DateKey(t.CreatedAt, s.loc)]++
		if t.IsCompleted {
			out.CompletedTasks++
			continue
		}
		out.OpenByPriority[t.Priority]++
		out.OpenByEnergy[t.Energy]++
		out.OpenByTimeOfDay[t.TimeOfDay]++
	}

	today := planner.Day(s.now(), s.loc)
	for i := analyticsDays - 1; i >= 0; i-- {
		key := planner.DateKey(today.AddDate(0, 0, -i), s.loc)
		out.TasksCreated = append(out.TasksCreated, DayCount{Date: key, Count: created[key]})
	}

	var latest *model.Schedule
	for i := range schedules {
		sch := &schedules[i]
		out.ScheduleModes[sch.Mode]++
		if latest == nil || sch.CreatedAt.After(latest.CreatedAt) {
			latest = sch
		}
		if i < analyticsDays {
			out.ScheduleMinutes = append(out.ScheduleMinutes, DayMinutes{Date: sch.DayDate, Minutes: sch.TotalMinutes()})
		}
	}
	if latest != nil {
		out.LatestScheduleMinutes = latest.TotalMinutes()
	}
	sort.Slice(out.ScheduleMinutes, func(i, j int) bool { return out.ScheduleMinutes[i].Date < out.ScheduleMinutes[j].Date })
	return out, nil
}
