package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with every planner route.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	SetupRoutes(r, h)
	return r
}

func SetupRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		tasks := api.Group("/tasks")
		{
			tasks.GET("", h.ListTasks)
			tasks.POST("", h.CreateTask)
			tasks.GET("/budget", h.Budget)
			tasks.GET("/:id", h.GetTask)
			tasks.PUT("/:id", h.UpdateTask)
			tasks.DELETE("/:id", h.DeleteTask)
			tasks.POST("/:id/toggle", h.ToggleTask)
		}

		scheduler := api.Group("/scheduler")
		{
			scheduler.GET("/day", h.GetDay)
			scheduler.POST("/day/regenerate", h.RegenerateDay)
			scheduler.GET("/month", h.MonthSummary)
			scheduler.POST("/:id/order", h.ReorderItems)
		}

		api.GET("/schedule/:id/export.ics", h.ExportSchedule)

		calendar := api.Group("/calendar")
		{
			calendar.GET("", h.ListEvents)
			calendar.POST("/import", h.ImportEvents)
		}

		api.GET("/preferences", h.GetPreferences)
		api.PUT("/preferences", h.UpdatePreferences)
		api.GET("/analytics", h.Analytics)
	}
}
