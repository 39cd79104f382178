package notifications

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/snaptodo/snaptodo/extraction"
	"github.com/snaptodo/snaptodo/log"
	"github.com/snaptodo/snaptodo/tasks"
)

// Notification identities. The summary always uses the same id so that a
// repost replaces it; per-task ids are derived from the list index.
const (
	SummaryID  = 1
	TaskIDBase = 100
)

var centerLogger = log.GetLogger("NotificationCenter")

// Entry is one visible notification
type Entry struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	Body            string `json:"body,omitempty"`
	ShowClearAction bool   `json:"showClearAction,omitempty"`
}

// Center owns the derived notification state: one summary entry plus one
// entry per active task. Invariant: the visible per-task ids are exactly
// TaskIDBase + index for every task with IsCompleted == false.
type Center struct {
	mu      sync.Mutex
	store   *tasks.Store
	svc     *Service
	status  string
	entries map[int]Entry
}

// NewCenter creates a notification center over the task store
func NewCenter(store *tasks.Store, svc *Service) *Center {
	return &Center{
		store:   store,
		svc:     svc,
		entries: make(map[int]Entry),
	}
}

// SetStatus shows transient progress text on the summary entry while a
// capture runs. Cleared by the next RefreshSummary.
func (c *Center) SetStatus(text string) {
	c.mu.Lock()
	c.status = text
	c.entries[SummaryID] = Entry{ID: SummaryID, Title: text}
	c.mu.Unlock()

	c.svc.Notify(Event{Type: EventStatus, Data: map[string]any{"text": text}})
}

// RefreshSummary recomputes the summary entry from the task list
func (c *Center) RefreshSummary() {
	list, err := c.store.List()
	if err != nil {
		centerLogger.Error().Err(err).Msg("failed to load tasks for summary")
		return
	}

	active := 0
	for _, t := range list {
		if !t.IsCompleted {
			active++
		}
	}

	text := "暂无待办任务"
	if active > 0 {
		text = fmt.Sprintf("你有 %d 个待办事项", active)
	}

	c.mu.Lock()
	c.status = ""
	c.entries[SummaryID] = Entry{
		ID:              SummaryID,
		Title:           text,
		ShowClearAction: len(list) > 0,
	}
	c.mu.Unlock()

	c.svc.Notify(Event{Type: EventSummaryUpdated, Data: map[string]any{
		"text":        text,
		"activeCount": active,
	}})
}

// PostTask publishes the notification for the task at index. Completed
// tasks are never posted.
func (c *Center) PostTask(index int) {
	list, err := c.store.List()
	if err != nil {
		centerLogger.Error().Err(err).Msg("failed to load tasks for post")
		return
	}
	if index < 0 || index >= len(list) || list[index].IsCompleted {
		return
	}

	entry := buildTaskEntry(index, list[index])
	c.mu.Lock()
	c.entries[entry.ID] = entry
	c.mu.Unlock()

	c.svc.Notify(Event{Type: EventTaskPosted, Data: map[string]any{
		"index": index,
		"entry": entry,
	}})
}

// RefreshTask re-renders the entry for an edited task in place
func (c *Center) RefreshTask(index int) {
	c.PostTask(index)
}

// DismissTask removes the notification for the task at index
func (c *Center) DismissTask(index int) {
	c.mu.Lock()
	delete(c.entries, TaskIDBase+index)
	c.mu.Unlock()

	c.svc.Notify(Event{Type: EventTaskDismissed, Data: map[string]any{"index": index}})
}

// ClearTasks removes every per-task notification
func (c *Center) ClearTasks() {
	c.mu.Lock()
	for id := range c.entries {
		if id >= TaskIDBase {
			delete(c.entries, id)
		}
	}
	c.mu.Unlock()

	c.svc.Notify(Event{Type: EventTasksCleared})
}

// Rebuild drops all per-task entries and reposts one per active task, then
// refreshes the summary. This is the authoritative path after any change
// that shifts indices, such as removing a task.
func (c *Center) Rebuild() {
	list, err := c.store.List()
	if err != nil {
		centerLogger.Error().Err(err).Msg("failed to load tasks for rebuild")
		return
	}

	c.mu.Lock()
	for id := range c.entries {
		if id >= TaskIDBase {
			delete(c.entries, id)
		}
	}
	for i, t := range list {
		if t.IsCompleted {
			continue
		}
		entry := buildTaskEntry(i, t)
		c.entries[entry.ID] = entry
	}
	c.mu.Unlock()

	c.RefreshSummary()
}

// Snapshot returns the visible entries ordered by id
func (c *Center) Snapshot() []Entry {
	c.mu.Lock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// buildTaskEntry renders one task into its notification entry. The title
// shows the location when one was parsed, the content shows the key info;
// both fall back to the task title.
func buildTaskEntry(index int, task tasks.Task) Entry {
	fallback := fmt.Sprintf("待办事项 %d", index+1)
	parsed := extraction.ParseTaskBlock(task.Text, fallback)

	displayTitle := parsed.Title
	if parsed.Location != "" {
		displayTitle = parsed.Location
	}
	displayContent := parsed.Title
	if parsed.KeyInfo != "" {
		displayContent = parsed.KeyInfo
	}

	timeStr := parsed.Time
	if timeStr == "" {
		timeStr = "尽快"
	}

	var body strings.Builder
	body.WriteString(parsed.Title)
	body.WriteString("\n\n")
	body.WriteString("⏰ 时间: ")
	body.WriteString(timeStr)
	body.WriteString("\n")
	body.WriteString("📍 地点: ")
	body.WriteString(parsed.Location)
	body.WriteString("\n")
	body.WriteString("🔑 关键信息: ")
	body.WriteString(parsed.KeyInfo)

	return Entry{
		ID:      TaskIDBase + index,
		Title:   displayTitle,
		Content: displayContent,
		Body:    body.String(),
	}
}
