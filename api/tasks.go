package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/snaptodo/snaptodo/log"
	"github.com/snaptodo/snaptodo/tasks"
)

var taskLogger = log.GetLogger("ApiTasks")

// taskView is one task as returned by the API
type taskView struct {
	Index       int    `json:"index"`
	Text        string `json:"text"`
	IsCompleted bool   `json:"isCompleted"`
}

// GetTasks handles GET /api/tasks
func (h *Handlers) GetTasks(c *gin.Context) {
	list, err := h.Store.List()
	if err != nil {
		taskLogger.Error().Err(err).Msg("failed to list tasks")
		RespondInternalError(c, "failed to load tasks")
		return
	}

	views := make([]taskView, 0, len(list))
	for i, t := range list {
		views = append(views, taskView{Index: i, Text: t.Text, IsCompleted: t.IsCompleted})
	}
	c.JSON(http.StatusOK, gin.H{"tasks": views})
}

// CompleteTask handles POST /api/tasks/:index/complete. Completion is
// one-way; the notification for the task is dismissed and the summary
// count updated.
func (h *Handlers) CompleteTask(c *gin.Context) {
	index, ok := taskIndex(c)
	if !ok {
		return
	}

	if err := h.Store.Complete(index); err != nil {
		if errors.Is(err, tasks.ErrIndexOutOfRange) {
			RespondNotFound(c, "no task at that index")
			return
		}
		taskLogger.Error().Err(err).Int("index", index).Msg("complete failed")
		RespondInternalError(c, "failed to complete task")
		return
	}

	h.Center.DismissTask(index)
	h.Center.RefreshSummary()
	c.Status(http.StatusNoContent)
}

// updateTaskRequest is the body for PUT /api/tasks/:index
type updateTaskRequest struct {
	Text string `json:"text" binding:"required"`
}

// UpdateTask handles PUT /api/tasks/:index
func (h *Handlers) UpdateTask(c *gin.Context) {
	index, ok := taskIndex(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "text is required")
		return
	}

	if err := h.Store.Update(index, req.Text); err != nil {
		switch {
		case errors.Is(err, tasks.ErrIndexOutOfRange):
			RespondNotFound(c, "no task at that index")
		case errors.Is(err, tasks.ErrTaskCompleted):
			RespondConflict(c, "task already completed")
		default:
			taskLogger.Error().Err(err).Int("index", index).Msg("update failed")
			RespondInternalError(c, "failed to update task")
		}
		return
	}

	h.Center.RefreshTask(index)
	c.Status(http.StatusNoContent)
}

// RemoveTask handles DELETE /api/tasks/:index. Removal shifts later
// indices, so the notification center is rebuilt rather than patched.
func (h *Handlers) RemoveTask(c *gin.Context) {
	index, ok := taskIndex(c)
	if !ok {
		return
	}

	if err := h.Store.Remove(index); err != nil {
		if errors.Is(err, tasks.ErrIndexOutOfRange) {
			RespondNotFound(c, "no task at that index")
			return
		}
		taskLogger.Error().Err(err).Int("index", index).Msg("remove failed")
		RespondInternalError(c, "failed to remove task")
		return
	}

	h.Center.Rebuild()
	c.Status(http.StatusNoContent)
}

// ClearTasks handles DELETE /api/tasks
func (h *Handlers) ClearTasks(c *gin.Context) {
	if err := h.Store.ClearAll(); err != nil {
		taskLogger.Error().Err(err).Msg("clear failed")
		RespondInternalError(c, "failed to clear tasks")
		return
	}

	h.Center.ClearTasks()
	h.Center.RefreshSummary()
	c.Status(http.StatusNoContent)
}

func taskIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		RespondBadRequest(c, "index must be a non-negative number")
		return 0, false
	}
	return index, true
}
