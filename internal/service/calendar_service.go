package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"daily-planner/internal/ics"
	"daily-planner/internal/model"
	"daily-planner/internal/planner"
	"daily-planner/internal/repository"
)

const calendarListLimit = 200

// CalendarService imports busy intervals and exports schedules as iCalendar.
type CalendarService struct {
	calendarRepo *repository.CalendarRepository
	scheduleRepo *repository.ScheduleRepository
	loc          *time.Location
	now          func() time.Time
}

func NewCalendarService(calendarRepo *repository.CalendarRepository, scheduleRepo *repository.ScheduleRepository, loc *time.Location) *CalendarService {
	if loc == nil {
		loc = time.Local
	}
	return &CalendarService{calendarRepo: calendarRepo, scheduleRepo: scheduleRepo, loc: loc, now: time.Now}
}

// Import stores every complete VEVENT of r as a calendar event.
func (s *CalendarService) Import(ctx context.Context, r io.Reader) ([]model.CalendarEvent, error) {
	parsed, err := ics.Parse(r, s.loc)
	if err != nil {
		return nil, err
	}
	events := make([]model.CalendarEvent, 0, len(parsed))
	for _, ev := range parsed {
		events = append(events, model.CalendarEvent{
			Title:     ev.Title,
			StartTime: ev.Start,
			EndTime:   ev.End,
			Source:    model.SourceICS,
			DayDate:   planner.DateKey(ev.Start, s.loc),
		})
	}
	if err := s.calendarRepo.CreateBatch(ctx, events); err != nil {
		return nil, err
	}
	log.Printf("[info] imported %d calendar events", len(events))
	return events, nil
}

func (s *CalendarService) List(ctx context.Context) ([]model.CalendarEvent, error) {
	events, err := s.calendarRepo.List(ctx, calendarListLimit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ExportSchedule writes the schedule's items, in position order, to w.
func (s *CalendarService) ExportSchedule(ctx context.Context, scheduleID uint, w io.Writer) error {
	schedule, err := s.scheduleRepo.FindByID(ctx, scheduleID)
	if err != nil {
		return lookupErr(err, fmt.Sprintf("schedule %d", scheduleID))
	}
	events := make([]ics.Event, 0, len(schedule.Items))
	for _, it := range schedule.Items {
		events = append(events, ics.Event{
			UID:   ics.UID("schedule", strconv.FormatUint(uint64(schedule.ID), 10), "item", strconv.FormatUint(uint64(it.ID), 10)),
			Title: it.Title,
			Start: it.StartTime,
			End:   it.EndTime,
		})
	}
	return ics.Write(w, events, s.now())
}
