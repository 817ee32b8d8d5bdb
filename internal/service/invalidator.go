package service

import (
	"context"
	"log"
	"time"

	"daily-planner/internal/config"
	"daily-planner/internal/planner"
	"daily-planner/internal/repository"
)

// Invalidator drops persisted schedules after the task list changed so they
// are synthesized again on the next read.
type Invalidator struct {
	scheduleRepo *repository.ScheduleRepository
	scope        string
	loc          *time.Location
	now          func() time.Time
}

func NewInvalidator(scheduleRepo *repository.ScheduleRepository, scope string, loc *time.Location) *Invalidator {
	if loc == nil {
		loc = time.Local
	}
	return &Invalidator{scheduleRepo: scheduleRepo, scope: scope, loc: loc, now: time.Now}
}

// Invalidate removes every schedule, or only those dated today and later,
// depending on the configured scope.
func (i *Invalidator) Invalidate(ctx context.Context) error {
	if i.scope == config.InvalidateAll {
		if err := i.scheduleRepo.DeleteAll(ctx); err != nil {
			return err
		}
		log.Println("[info] all schedules invalidated")
		return nil
	}
	from := planner.DateKey(i.now(), i.loc)
	if err := i.scheduleRepo.DeleteFrom(ctx, from); err != nil {
		return err
	}
	log.Printf("[info] schedules from %s invalidated", from)
	return nil
}
