package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"daily-planner/internal/service"
)

const maxICSBytes = 5 << 20

// ListEvents returns imported calendar events
// GET /api/calendar
func (h *Handler) ListEvents(c *gin.Context) {
	events, err := h.calendar.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ImportEvents stores the events of an uploaded .ics file, sent either as
// the multipart field "ics" or as the raw request body
// POST /api/calendar/import
func (h *Handler) ImportEvents(c *gin.Context) {
	var src io.Reader = io.LimitReader(c.Request.Body, maxICSBytes)
	if file, err := c.FormFile("ics"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		src = io.LimitReader(f, maxICSBytes)
	}

	events, err := h.calendar.Import(c.Request.Context(), src)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"imported": len(events), "events": events})
}

// PreferencesRequest is the body of a preferences update.
type PreferencesRequest struct {
	FocusWindowStart    string `json:"focus_window_start"`
	FocusWindowEnd      string `json:"focus_window_end"`
	BreakCadenceMinutes *int   `json:"break_cadence_minutes"`
	WorkingDays         string `json:"working_days"`
}

// GetPreferences
// GET /api/preferences
func (h *Handler) GetPreferences(c *gin.Context) {
	prefs, err := h.prefs.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences
// PUT /api/preferences
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prefs, err := h.prefs.Update(c.Request.Context(), service.PreferencesInput{
		FocusWindowStart:    req.FocusWindowStart,
		FocusWindowEnd:      req.FocusWindowEnd,
		BreakCadenceMinutes: req.BreakCadenceMinutes,
		WorkingDays:         req.WorkingDays,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// Analytics
// GET /api/analytics
func (h *Handler) Analytics(c *gin.Context) {
	summary, err := h.analytics.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
