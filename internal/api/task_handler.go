package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"daily-planner/internal/service"
)

// TaskRequest represents the request body for creating or editing a task.
type TaskRequest struct {
	Title            string `json:"title"`
	Priority         string `json:"priority"`
	Energy           string `json:"energy"`
	DurationMinutes  int    `json:"duration_minutes"`
	DailyTimeMinutes int    `json:"daily_time_minutes"`
	BeginDate        string `json:"begin_date"`
	Deadline         string `json:"deadline"`
	TimeOfDay        string `json:"time_of_day"`
	TaskType         string `json:"task_type"`
}

func (h *Handler) taskInput(req TaskRequest) (service.TaskInput, error) {
	loc := h.schedules.Location()
	begin, err := service.ParseBeginDate(req.BeginDate, loc)
	if err != nil {
		return service.TaskInput{}, err
	}
	deadline, err := service.ParseDeadline(req.Deadline, loc)
	if err != nil {
		return service.TaskInput{}, err
	}
	return service.TaskInput{
		Title:            req.Title,
		Priority:         req.Priority,
		Energy:           req.Energy,
		DurationMinutes:  req.DurationMinutes,
		DailyTimeMinutes: req.DailyTimeMinutes,
		BeginDate:        begin,
		Deadline:         deadline,
		TimeOfDay:        req.TimeOfDay,
		TaskType:         req.TaskType,
	}, nil
}

// ListTasks returns every task, open ones first
// GET /api/tasks
func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.tasks.ListTasks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}

// GetTask returns a specific task
// GET /api/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	task, err := h.tasks.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTask creates a new task
// POST /api/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := h.taskInput(req)
	if err != nil {
		respondError(c, err)
		return
	}
	task, err := h.tasks.CreateTask(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTask updates an existing task; omitted fields are kept
// PUT /api/tasks/:id
func (h *Handler) UpdateTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := h.taskInput(req)
	if err != nil {
		respondError(c, err)
		return
	}
	task, err := h.tasks.UpdateTask(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask removes a task
// DELETE /api/tasks/:id
func (h *Handler) DeleteTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleTask flips the completion flag
// POST /api/tasks/:id/toggle
func (h *Handler) ToggleTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	task, err := h.tasks.ToggleTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Budget returns planned minutes against the focus window
// GET /api/tasks/budget?exclude=ID
func (h *Handler) Budget(c *gin.Context) {
	exclude, _ := strconv.ParseUint(c.Query("exclude"), 10, 64)
	budget, err := h.tasks.Budget(c.Request.Context(), uint(exclude))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}
