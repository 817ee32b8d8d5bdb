package model

import "time"

// SourceICS marks events imported from an iCalendar file.
const SourceICS = "ICS"

// CalendarEvent is an immovable busy interval.
// DayDate caches the start date so events can be looked up per day.
type CalendarEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:200" json:"title"`
	StartTime time.Time `json:"start"`
	EndTime   time.Time `json:"end"`
	Source    string    `gorm:"size:50;default:ICS" json:"source"`
	DayDate   string    `gorm:"size:10;index" json:"day_date"`
	CreatedAt time.Time `json:"created_at"`
}
