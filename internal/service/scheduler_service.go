package service

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"daily-planner/internal/planner"
)

// SchedulerService wraps cron-based jobs: the morning plan push and the
// periodic cleanup of expired tasks.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	logger := cron.VerbosePrintfLogger(log.New(os.Stdout, "[cron] ", log.LstdFlags))
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(name, timeStr string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	id, err := s.cron.AddFunc(spec, named(name, job))
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	log.Printf("[info] job %s runs daily at %s", name, timeStr)
	return id, nil
}

// ScheduleInterval registers a periodic job every given duration.
func (s *SchedulerService) ScheduleInterval(name string, interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	id, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), named(name, job))
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	log.Printf("[info] job %s runs every %s", name, interval)
	return id, nil
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func named(name string, job func()) func() {
	return func() {
		started := time.Now()
		job()
		log.Printf("[info] job %s finished in %s", name, time.Since(started).Round(time.Millisecond))
	}
}

func buildDailySpec(timeStr string) (string, error) {
	clock, ok := planner.ParseClock(timeStr)
	if !ok {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", int(clock)%60, int(clock)/60), nil
}
