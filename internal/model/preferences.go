package model

// Preferences is a singleton row with the user's planning settings.
// Empty focus window fields mean "use the default window".
type Preferences struct {
	ID                  uint   `gorm:"primaryKey" json:"id"`
	FocusWindowStart    string `gorm:"size:5" json:"focus_window_start"`
	FocusWindowEnd      string `gorm:"size:5" json:"focus_window_end"`
	BreakCadenceMinutes int    `gorm:"default:0" json:"break_cadence_minutes"`
	WorkingDays         string `gorm:"size:32;default:Mon,Tue,Wed,Thu,Fri" json:"working_days"`
}
