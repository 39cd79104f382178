// Package api exposes the HTTP surface: capture trigger, task list CRUD,
// notification snapshot and stream, and AI settings.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/snaptodo/snaptodo/notifications"
	"github.com/snaptodo/snaptodo/pipeline"
	"github.com/snaptodo/snaptodo/tasks"
)

// Handlers carries the services the routes operate on
type Handlers struct {
	Runner *pipeline.Runner
	Store  *tasks.Store
	Center *notifications.Center
	Events *notifications.Service
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *Handlers) {
	api := r.Group("/api")

	// Capture trigger
	api.POST("/capture", h.PostCapture)

	// Task list
	api.GET("/tasks", h.GetTasks)
	api.POST("/tasks/:index/complete", h.CompleteTask)
	api.PUT("/tasks/:index", h.UpdateTask)
	api.DELETE("/tasks/:index", h.RemoveTask)
	api.DELETE("/tasks", h.ClearTasks)

	// Notifications
	api.GET("/notifications", h.GetNotifications)
	api.GET("/notifications/stream", h.NotificationStream)

	// Settings
	api.GET("/settings", h.GetSettings)
	api.PUT("/settings", h.UpdateSettings)
}
