package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidOrder = errors.New("item ids must list every schedule item exactly once")
	ErrInvalidInput = errors.New("invalid input")
)

// lookupErr maps a missing record onto ErrNotFound.
func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("find %s: %w", what, err)
}
