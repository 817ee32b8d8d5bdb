package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"daily-planner/internal/service"
)

// Handler serves the planner's JSON API.
type Handler struct {
	tasks     *service.TaskService
	schedules *service.ScheduleService
	calendar  *service.CalendarService
	prefs     *service.PreferencesService
	analytics *service.AnalyticsService
}

// NewHandler creates a new Handler
func NewHandler(
	tasks *service.TaskService,
	schedules *service.ScheduleService,
	calendar *service.CalendarService,
	prefs *service.PreferencesService,
	analytics *service.AnalyticsService,
) *Handler {
	return &Handler{tasks: tasks, schedules: schedules, calendar: calendar, prefs: prefs, analytics: analytics}
}

// respondError maps service errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidOrder), errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		log.Printf("[error] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
