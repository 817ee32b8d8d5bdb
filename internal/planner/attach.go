package planner

import (
	"strings"

	"daily-planner/internal/model"
)

func titleKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AttachTasks links blocks to tasks whose title matches exactly, ignoring
// case and surrounding spaces. Unmatched blocks keep a nil Task.
func AttachTasks(blocks []Block, tasks []model.Task) {
	byTitle := make(map[string]*model.Task, len(tasks))
	for i := range tasks {
		byTitle[titleKey(tasks[i].Title)] = &tasks[i]
	}
	for i := range blocks {
		if t, ok := byTitle[titleKey(blocks[i].Title)]; ok {
			blocks[i].Task = t
		}
	}
}
