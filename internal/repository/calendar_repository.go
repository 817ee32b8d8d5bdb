package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"daily-planner/internal/model"
)

// CalendarRepository stores imported busy intervals.
type CalendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

func (r *CalendarRepository) CreateBatch(ctx context.Context, events []model.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(events, 100).Error; err != nil {
		return fmt.Errorf("create calendar events: %w", err)
	}
	return nil
}

// ListForDate returns events that start on the date.
func (r *CalendarRepository) ListForDate(ctx context.Context, dayDate string) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	if err := r.db.WithContext(ctx).Where("day_date = ?", dayDate).
		Order("start_time ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// List returns up to limit events, earliest first.
func (r *CalendarRepository) List(ctx context.Context, limit int) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	if err := r.db.WithContext(ctx).Order("start_time ASC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
