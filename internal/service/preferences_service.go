package service

import (
	"context"
	"fmt"
	"strings"

	"daily-planner/internal/model"
	"daily-planner/internal/planner"
	"daily-planner/internal/repository"
)

var weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// PreferencesInput carries a preferences update. Nil or empty fields other
// than the focus window keep their stored value.
type PreferencesInput struct {
	FocusWindowStart    string
	FocusWindowEnd      string
	BreakCadenceMinutes *int
	WorkingDays         string
}

type PreferencesService struct {
	prefsRepo   *repository.PreferencesRepository
	invalidator *Invalidator
}

func NewPreferencesService(prefsRepo *repository.PreferencesRepository, invalidator *Invalidator) *PreferencesService {
	return &PreferencesService{prefsRepo: prefsRepo, invalidator: invalidator}
}

func (s *PreferencesService) Get(ctx context.Context) (*model.Preferences, error) {
	return s.prefsRepo.Get(ctx)
}

// Update stores the focus window only when both bounds are valid HH:MM and
// end is after start; otherwise the window is cleared and defaults apply.
func (s *PreferencesService) Update(ctx context.Context, in PreferencesInput) (*model.Preferences, error) {
	prefs, err := s.prefsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	oldStart, oldEnd := prefs.FocusWindowStart, prefs.FocusWindowEnd

	start, okStart := planner.ParseClock(in.FocusWindowStart)
	end, okEnd := planner.ParseClock(in.FocusWindowEnd)
	if okStart && okEnd && end > start {
		prefs.FocusWindowStart, prefs.FocusWindowEnd = start.String(), end.String()
	} else {
		prefs.FocusWindowStart, prefs.FocusWindowEnd = "", ""
	}

	if in.BreakCadenceMinutes != nil {
		if *in.BreakCadenceMinutes < 0 {
			return nil, fmt.Errorf("break cadence must not be negative: %w", ErrInvalidInput)
		}
		prefs.BreakCadenceMinutes = *in.BreakCadenceMinutes
	}
	if days := normalizeWorkingDays(in.WorkingDays); days != "" {
		prefs.WorkingDays = days
	}

	if err := s.prefsRepo.Save(ctx, prefs); err != nil {
		return nil, err
	}
	if s.invalidator != nil && (prefs.FocusWindowStart != oldStart || prefs.FocusWindowEnd != oldEnd) {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			return nil, fmt.Errorf("invalidate schedules: %w", err)
		}
	}
	return prefs, nil
}

// normalizeWorkingDays keeps known weekday abbreviations in week order.
func normalizeWorkingDays(raw string) string {
	picked := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		for _, d := range weekdays {
			if len(part) >= 3 && strings.EqualFold(part[:3], d) {
				picked[d] = true
			}
		}
	}
	var out []string
	for _, d := range weekdays {
		if picked[d] {
			out = append(out, d)
		}
	}
	return strings.Join(out, ",")
}
