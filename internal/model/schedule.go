package model

import "time"

// Mode is the planning style requested from the plan generator.
type Mode string

const (
	ModeBalanced Mode = "Balanced"
	ModeDeepWork Mode = "Deep-work"
	ModeQuickWin Mode = "Quick-win"
)

// DateLayout is the storage and wire format of calendar dates.
const DateLayout = "2006-01-02"

// ClockLayout is the storage and wire format of times of day.
const ClockLayout = "15:04"

// Schedule is the generated plan for one calendar date.
// Only the most recently created row per DayDate is authoritative.
type Schedule struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Mode      Mode           `gorm:"size:20;default:Balanced" json:"mode"`
	DayStart  string         `gorm:"size:5" json:"day_start"`
	DayEnd    string         `gorm:"size:5" json:"day_end"`
	PlanText  string         `gorm:"type:text" json:"plan_text"`
	DayDate   string         `gorm:"size:10;index" json:"day_date"`
	CreatedAt time.Time      `json:"created_at"`
	Items     []ScheduleItem `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE" json:"items"`
}

// ScheduleItem is one time block of a schedule.
// TaskID is a weak back-reference: deleting the task clears it.
type ScheduleItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ScheduleID uint      `gorm:"index;not null" json:"schedule_id"`
	TaskID     *uint     `gorm:"index" json:"task_id,omitempty"`
	Title      string    `gorm:"size:200" json:"title"`
	StartTime  time.Time `json:"start"`
	EndTime    time.Time `json:"end"`
	Position   int       `gorm:"default:0" json:"position"`
}

// Minutes returns the length of the block.
func (i ScheduleItem) Minutes() int {
	return int(i.EndTime.Sub(i.StartTime) / time.Minute)
}

// TotalMinutes sums the lengths of all items.
func (s Schedule) TotalMinutes() int {
	total := 0
	for _, it := range s.Items {
		total += it.Minutes()
	}
	return total
}
