package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"daily-planner/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns every task, open ones first.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Order("is_completed ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListOpen returns tasks that are not completed, in id order.
func (r *TaskRepository) ListOpen(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("is_completed = ?", false).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListWithDeadline returns tasks that carry a deadline.
func (r *TaskRepository) ListWithDeadline(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("deadline IS NOT NULL").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) SetCompleted(ctx context.Context, task *model.Task, completed bool) error {
	task.IsCompleted = completed
	if err := r.db.WithContext(ctx).Model(task).Update("is_completed", completed).Error; err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

// Delete removes tasks and clears the weak references schedule items hold to them.
func (r *TaskRepository) Delete(ctx context.Context, taskIDs ...uint) error {
	if len(taskIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ScheduleItem{}).Where("task_id IN ?", taskIDs).
			Update("task_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", taskIDs).Delete(&model.Task{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
