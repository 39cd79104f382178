package notifications

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/snaptodo/snaptodo/tasks"
)

type memPersist struct {
	mu    sync.Mutex
	value string
}

func (p *memPersist) Load() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, nil
}

func (p *memPersist) Save(v string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = v
	return nil
}

func newTestCenter(t *testing.T, texts ...string) (*Center, *tasks.Store) {
	t.Helper()
	store := tasks.NewStore(&memPersist{})
	if len(texts) > 0 {
		if _, err := store.Append(texts); err != nil {
			t.Fatal(err)
		}
	}
	return NewCenter(store, NewService()), store
}

// visibleTaskIDs returns the per-task notification ids in the snapshot
func visibleTaskIDs(c *Center) []int {
	var ids []int
	for _, e := range c.Snapshot() {
		if e.ID >= TaskIDBase {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func TestRebuild_VisibleIDsMatchActiveIndices(t *testing.T) {
	c, store := newTestCenter(t, "## 任务甲", "## 任务乙", "## 任务丙")
	if err := store.Complete(1); err != nil {
		t.Fatal(err)
	}

	c.Rebuild()

	ids := visibleTaskIDs(c)
	want := []int{TaskIDBase + 0, TaskIDBase + 2}
	if fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Errorf("visible ids = %v, want %v", ids, want)
	}
}

func TestRefreshSummary_Counts(t *testing.T) {
	c, store := newTestCenter(t)
	c.RefreshSummary()

	snap := c.Snapshot()
	if len(snap) != 1 || snap[0].ID != SummaryID {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap[0].Title != "暂无待办任务" {
		t.Errorf("empty summary = %q", snap[0].Title)
	}
	if snap[0].ShowClearAction {
		t.Error("clear action shown with no tasks")
	}

	store.Append([]string{"## a", "## b"})
	c.RefreshSummary()
	snap = c.Snapshot()
	if snap[0].Title != "你有 2 个待办事项" {
		t.Errorf("summary = %q", snap[0].Title)
	}
	if !snap[0].ShowClearAction {
		t.Error("clear action missing with tasks present")
	}

	// Completed tasks leave the count but keep the clear action
	store.Complete(0)
	store.Complete(1)
	c.RefreshSummary()
	snap = c.Snapshot()
	if snap[0].Title != "暂无待办任务" {
		t.Errorf("summary after completion = %q", snap[0].Title)
	}
	if !snap[0].ShowClearAction {
		t.Error("clear action should remain while completed tasks exist")
	}
}

func TestPostTask_DisplayFallbacks(t *testing.T) {
	block := "## [取快递] 去西门丰巢取件\n- ⏰ 时间: 尽快\n- 📍 地点: 丰巢西门柜机\n- 🔑 关键信息: 889901"
	c, _ := newTestCenter(t, block)

	c.PostTask(0)

	snap := c.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	e := snap[0]
	if e.ID != TaskIDBase {
		t.Errorf("id = %d", e.ID)
	}
	if e.Title != "丰巢西门柜机" {
		t.Errorf("title = %q, want location", e.Title)
	}
	if e.Content != "889901" {
		t.Errorf("content = %q, want key info", e.Content)
	}
	if !strings.Contains(e.Body, "⏰ 时间: 尽快") || !strings.Contains(e.Body, "📍 地点: 丰巢西门柜机") {
		t.Errorf("body = %q", e.Body)
	}
}

func TestPostTask_TitleFallsBackWhenUnparsed(t *testing.T) {
	c, _ := newTestCenter(t, "just some text")

	c.PostTask(0)

	e := c.Snapshot()[0]
	if e.Title != "just some text" {
		t.Errorf("title = %q", e.Title)
	}
	if e.Content != "just some text" {
		t.Errorf("content = %q", e.Content)
	}
	if !strings.Contains(e.Body, "⏰ 时间: 尽快") {
		t.Errorf("empty time should render 尽快: %q", e.Body)
	}
}

func TestPostTask_SkipsCompleted(t *testing.T) {
	c, store := newTestCenter(t, "## a")
	store.Complete(0)

	c.PostTask(0)
	if ids := visibleTaskIDs(c); len(ids) != 0 {
		t.Errorf("completed task posted: %v", ids)
	}
}

func TestDismissAndClear(t *testing.T) {
	c, _ := newTestCenter(t, "## a", "## b")
	c.Rebuild()

	c.DismissTask(0)
	ids := visibleTaskIDs(c)
	if len(ids) != 1 || ids[0] != TaskIDBase+1 {
		t.Errorf("ids after dismiss = %v", ids)
	}

	c.ClearTasks()
	if ids := visibleTaskIDs(c); len(ids) != 0 {
		t.Errorf("ids after clear = %v", ids)
	}
}

func TestServiceBroadcast(t *testing.T) {
	svc := NewService()
	ch, unsub := svc.Subscribe()
	defer unsub()

	svc.Notify(Event{Type: EventStatus, Data: map[string]any{"text": "正在识别文字..."}})

	ev := <-ch
	if ev.Type != EventStatus {
		t.Errorf("type = %q", ev.Type)
	}
	if ev.Timestamp == 0 {
		t.Error("timestamp not stamped")
	}
}

func TestServiceShutdown(t *testing.T) {
	svc := NewService()
	ch, unsub := svc.Subscribe()
	defer unsub()

	svc.Shutdown()
	svc.Shutdown() // second call must not panic

	if _, open := <-ch; open {
		t.Error("subscriber channel not closed by shutdown")
	}

	// Later events are dropped, later subscribers get a closed channel
	svc.Notify(Event{Type: EventStatus})
	late, lateUnsub := svc.Subscribe()
	defer lateUnsub()
	if _, open := <-late; open {
		t.Error("subscription after shutdown should be closed")
	}
	if n := svc.SubscriberCount(); n != 0 {
		t.Errorf("subscribers = %d", n)
	}
}

func TestServiceUnsubscribeIdempotent(t *testing.T) {
	svc := NewService()
	_, unsub := svc.Subscribe()
	unsub()
	unsub() // second call must not panic

	if n := svc.SubscriberCount(); n != 0 {
		t.Errorf("subscribers = %d", n)
	}
}
