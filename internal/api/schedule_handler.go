package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ReorderRequest is the new order of a schedule's items.
type ReorderRequest struct {
	ItemIDs []uint `json:"item_ids" binding:"required"`
}

// GetDay returns the schedule of a date, synthesizing it if needed
// GET /api/scheduler/day?date=YYYY-MM-DD
func (h *Handler) GetDay(c *gin.Context) {
	ctx := c.Request.Context()
	day, err := h.schedules.ParseDate(c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.tasks.CleanupExpired(ctx); err != nil {
		respondError(c, err)
		return
	}
	view, err := h.schedules.DayView(ctx, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RegenerateDay synthesizes the schedule of a date again
// POST /api/scheduler/day/regenerate?date=YYYY-MM-DD
func (h *Handler) RegenerateDay(c *gin.Context) {
	ctx := c.Request.Context()
	day, err := h.schedules.ParseDate(c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.tasks.CleanupExpired(ctx); err != nil {
		respondError(c, err)
		return
	}
	schedule, err := h.schedules.Synthesize(ctx, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// MonthSummary returns scheduled minutes per day
// GET /api/scheduler/month?year=2024&month=3
func (h *Handler) MonthSummary(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	month, _ := strconv.Atoi(c.Query("month"))
	summary, err := h.schedules.MonthSummary(c.Request.Context(), year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ReorderItems moves schedule items and retimes them
// POST /api/scheduler/:id/order
func (h *Handler) ReorderItems(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	items, err := h.schedules.Reorder(c.Request.Context(), id, req.ItemIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

// ExportSchedule downloads a schedule as iCalendar
// GET /api/schedule/:id/export.ics
func (h *Handler) ExportSchedule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.calendar.ExportSchedule(c.Request.Context(), id, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="schedule-%d.ics"`, id))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}
