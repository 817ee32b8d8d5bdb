package model

import (
	"strings"
	"time"
)

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Energy describes how demanding a task is.
type Energy string

const (
	EnergyLow    Energy = "Low"
	EnergyNormal Energy = "Normal"
	EnergyHigh   Energy = "High"
)

// TimeOfDay is the part of the day a task prefers.
type TimeOfDay string

const (
	TimeAny       TimeOfDay = "Any"
	TimeMorning   TimeOfDay = "Morning"
	TimeNoon      TimeOfDay = "Noon"
	TimeAfternoon TimeOfDay = "Afternoon"
	TimeEvening   TimeOfDay = "Evening"
	TimeNight     TimeOfDay = "Night"
)

// TimesOfDay lists preferences in display order.
var TimesOfDay = []TimeOfDay{TimeAny, TimeMorning, TimeNoon, TimeAfternoon, TimeEvening, TimeNight}

// TaskTypes lists the category tags a task may carry.
var TaskTypes = []string{"General", "Exam", "Project", "Chores", "Study", "Workout", "Meeting", "Other"}

// DefaultTaskMinutes is used when a task has no planned duration.
const DefaultTaskMinutes = 30

// Task represents a single item in the planner.
type Task struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Title            string     `gorm:"size:200;not null" json:"title"`
	Priority         Priority   `gorm:"size:10;default:Medium" json:"priority"`
	Energy           Energy     `gorm:"size:10;default:Normal" json:"energy"`
	DurationMinutes  int        `gorm:"default:30" json:"duration_minutes"`
	DailyTimeMinutes int        `gorm:"default:0" json:"daily_time_minutes"`
	BeginDate        *time.Time `json:"begin_date,omitempty"`
	Deadline         *time.Time `gorm:"index" json:"deadline,omitempty"`
	TimeOfDay        TimeOfDay  `gorm:"size:20;default:Any" json:"time_of_day"`
	TaskType         string     `gorm:"size:20;default:General" json:"task_type"`
	IsCompleted      bool       `gorm:"default:false;index" json:"completed"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// EffectiveMinutes returns the daily planned minutes, the nominal duration,
// or the 30 minute default, whichever is set first.
func (t Task) EffectiveMinutes() int {
	if t.DailyTimeMinutes > 0 {
		return t.DailyTimeMinutes
	}
	if t.DurationMinutes > 0 {
		return t.DurationMinutes
	}
	return DefaultTaskMinutes
}

// ParsePriority maps free text onto a Priority, defaulting to Medium.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// ParseEnergy maps free text onto an Energy, defaulting to Normal.
func ParseEnergy(s string) Energy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return EnergyHigh
	case "low":
		return EnergyLow
	default:
		return EnergyNormal
	}
}

// ParseTimeOfDay maps free text onto a TimeOfDay, defaulting to Any.
func ParseTimeOfDay(s string) TimeOfDay {
	for _, tod := range TimesOfDay {
		if strings.EqualFold(strings.TrimSpace(s), string(tod)) {
			return tod
		}
	}
	return TimeAny
}

// ParseTaskType returns a known task type, defaulting to General.
func ParseTaskType(s string) string {
	for _, tt := range TaskTypes {
		if strings.EqualFold(strings.TrimSpace(s), tt) {
			return tt
		}
	}
	return "General"
}
