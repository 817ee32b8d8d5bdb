package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"daily-planner/internal/model"
)

const preferencesID = 1

// PreferencesRepository reads and writes the singleton preferences row.
type PreferencesRepository struct {
	db *gorm.DB
}

func NewPreferencesRepository(db *gorm.DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// Get returns the stored preferences, or defaults when none were saved yet.
func (r *PreferencesRepository) Get(ctx context.Context) (*model.Preferences, error) {
	var prefs model.Preferences
	err := r.db.WithContext(ctx).First(&prefs, preferencesID).Error
	switch {
	case err == nil:
		return &prefs, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &model.Preferences{ID: preferencesID, WorkingDays: "Mon,Tue,Wed,Thu,Fri"}, nil
	default:
		return nil, fmt.Errorf("find preferences: %w", err)
	}
}

func (r *PreferencesRepository) Save(ctx context.Context, prefs *model.Preferences) error {
	prefs.ID = preferencesID
	if err := r.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
