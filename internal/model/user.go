package model

import "time"

// User stores Telegram user metadata. Every known user receives the daily plan
// unless DailyPlan is switched off.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	DailyPlan  bool `gorm:"default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
