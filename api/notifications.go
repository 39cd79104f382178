package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/snaptodo/snaptodo/log"
	"github.com/snaptodo/snaptodo/notifications"
)

var notifLogger = log.GetLogger("ApiNotifications")

// GetNotifications handles GET /api/notifications: the current visible
// entries, summary first.
func (h *Handlers) GetNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.Center.Snapshot()})
}

// NotificationStream handles GET /api/notifications/stream (SSE)
func (h *Handlers) NotificationStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	events, unsubscribe := h.Events.Subscribe()
	defer unsubscribe()

	sendSSEEvent(c, notifications.Event{
		Type:      notifications.EventConnected,
		Timestamp: time.Now().UnixMilli(),
	})
	c.Writer.Flush()

	notifLogger.Debug().Msg("client connected to notification stream")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			sendSSEEvent(c, event)
			c.Writer.Flush()

		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": heartbeat\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			notifLogger.Debug().Msg("client disconnected from notification stream")
			return
		}
	}
}

func sendSSEEvent(c *gin.Context, event notifications.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		notifLogger.Error().Err(err).Msg("failed to marshal event")
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
}
