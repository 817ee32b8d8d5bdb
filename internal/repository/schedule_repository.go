package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"daily-planner/internal/model"
)

// ScheduleRepository persists generated schedules and their items.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func itemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

// LatestForDate returns the most recently created schedule for the date.
func (r *ScheduleRepository) LatestForDate(ctx context.Context, dayDate string) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).Preload("Items", itemsByPosition).
		Where("day_date = ?", dayDate).
		Order("created_at DESC, id DESC").
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *ScheduleRepository) FindByID(ctx context.Context, id uint) (*model.Schedule, error) {
	var schedule model.Schedule
	if err := r.db.WithContext(ctx).Preload("Items", itemsByPosition).First(&schedule, id).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ReplaceForDate deletes every schedule of schedule.DayDate and stores the
// new one with its items, in a single transaction.
func (r *ScheduleRepository) ReplaceForDate(ctx context.Context, schedule *model.Schedule) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteWhere(tx, "day_date = ?", schedule.DayDate); err != nil {
			return err
		}
		return tx.Create(schedule).Error
	})
	if err != nil {
		return fmt.Errorf("replace schedule %s: %w", schedule.DayDate, err)
	}
	return nil
}

// UpdateItemTimes writes position, start and end of the given items.
func (r *ScheduleRepository) UpdateItemTimes(ctx context.Context, items []model.ScheduleItem) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			if err := tx.Model(&model.ScheduleItem{}).Where("id = ?", it.ID).Updates(map[string]interface{}{
				"position":   it.Position,
				"start_time": it.StartTime,
				"end_time":   it.EndTime,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update schedule items: %w", err)
	}
	return nil
}

// ListBetween returns schedules whose date lies in [from, to], with items.
func (r *ScheduleRepository) ListBetween(ctx context.Context, from, to string) ([]model.Schedule, error) {
	var schedules []model.Schedule
	if err := r.db.WithContext(ctx).Preload("Items", itemsByPosition).
		Where("day_date >= ? AND day_date <= ?", from, to).
		Order("day_date ASC, created_at ASC, id ASC").
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// ListRecent returns up to limit schedules with a date, newest date first.
func (r *ScheduleRepository) ListRecent(ctx context.Context, limit int) ([]model.Schedule, error) {
	var schedules []model.Schedule
	if err := r.db.WithContext(ctx).Preload("Items", itemsByPosition).
		Where("day_date <> ''").
		Order("day_date DESC, created_at DESC").
		Limit(limit).
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// DeleteAll removes every schedule.
func (r *ScheduleRepository) DeleteAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteWhere(tx, "1 = 1")
	}); err != nil {
		return fmt.Errorf("delete schedules: %w", err)
	}
	return nil
}

// DeleteFrom removes schedules dated on or after dayDate.
func (r *ScheduleRepository) DeleteFrom(ctx context.Context, dayDate string) error {
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteWhere(tx, "day_date >= ?", dayDate)
	}); err != nil {
		return fmt.Errorf("delete schedules from %s: %w", dayDate, err)
	}
	return nil
}

// deleteWhere removes matching schedules together with their items.
func deleteWhere(tx *gorm.DB, query string, args ...interface{}) error {
	ids := tx.Model(&model.Schedule{}).Select("id").Where(query, args...)
	if err := tx.Where("schedule_id IN (?)", ids).Delete(&model.ScheduleItem{}).Error; err != nil {
		return err
	}
	return tx.Where(query, args...).Delete(&model.Schedule{}).Error
}
