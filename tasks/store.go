// Package tasks owns the persisted to-do list. The list is ordered and
// index-keyed; indices double as notification identities, so tasks are never
// reordered or compacted — completion flips a flag in place.
package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/snaptodo/snaptodo/log"
)

// StorageKey is the fixed settings key the task list is persisted under.
const StorageKey = "tasks"

var (
	ErrIndexOutOfRange = errors.New("task index out of range")
	ErrTaskCompleted   = errors.New("task already completed")
)

// Task is one to-do entry. Text is the original task block as produced by
// the analysis model; it serves as both identity and display payload.
type Task struct {
	Text        string `json:"text"`
	IsCompleted bool   `json:"isCompleted"`
}

// Range is the contiguous index range assigned by one append.
type Range struct {
	Start int `json:"start"` // inclusive
	End   int `json:"end"`   // inclusive
}

// Indices returns the indices covered by the range, in order.
func (r Range) Indices() []int {
	out := make([]int, 0, r.End-r.Start+1)
	for i := r.Start; i <= r.End; i++ {
		out = append(out, i)
	}
	return out
}

// Persistence is the narrow storage contract the store writes through.
// The production implementation is the settings table; tests use memory.
type Persistence interface {
	Load() (string, error)
	Save(value string) error
}

// Store is the single owner of the task list. All mutations are
// read-modify-write over the whole list under one lock, so a concurrent
// complete and append cannot lose either change.
type Store struct {
	mu      sync.Mutex
	persist Persistence
}

// NewStore creates a task store over the given persistence
func NewStore(p Persistence) *Store {
	return &Store{persist: p}
}

// List returns a snapshot of all tasks
func (s *Store) List() ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// ActiveCount returns the number of tasks not yet completed
func (s *Store) ActiveCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, t := range tasks {
		if !t.IsCompleted {
			count++
		}
	}
	return count, nil
}

// Append adds new tasks at the end of the list and returns the contiguous
// index range they were assigned. The range lets the notification layer
// publish only the new entries instead of rebuilding everything.
func (s *Store) Append(texts []string) (Range, error) {
	if len(texts) == 0 {
		return Range{}, errors.New("nothing to append")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return Range{}, err
	}

	start := len(tasks)
	for _, text := range texts {
		tasks = append(tasks, Task{Text: text})
	}

	if err := s.save(tasks); err != nil {
		return Range{}, err
	}

	return Range{Start: start, End: len(tasks) - 1}, nil
}

// Complete marks the task at index as completed. One-way: there is no
// un-complete operation.
func (s *Store) Complete(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(tasks) {
		return ErrIndexOutOfRange
	}

	tasks[index].IsCompleted = true
	return s.save(tasks)
}

// Update replaces the text of an existing, non-completed task
func (s *Store) Update(index int, newText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(tasks) {
		return ErrIndexOutOfRange
	}
	if tasks[index].IsCompleted {
		return ErrTaskCompleted
	}

	tasks[index].Text = newText
	return s.save(tasks)
}

// Remove deletes the task at index. Later indices shift down; callers that
// hold notification ids must rebuild, not patch.
func (s *Store) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(tasks) {
		return ErrIndexOutOfRange
	}

	tasks = append(tasks[:index], tasks[index+1:]...)
	return s.save(tasks)
}

// ClearAll empties the list
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save([]Task{})
}

// load reads and decodes the persisted list. Caller holds the lock.
// Legacy data (a plain JSON string array from early releases) is migrated
// to the structured form and re-saved.
func (s *Store) load() ([]Task, error) {
	raw, err := s.persist.Load()
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if raw == "" {
		return []Task{}, nil
	}

	var tasks []Task
	if err := json.Unmarshal([]byte(raw), &tasks); err == nil {
		return tasks, nil
	}

	// Legacy format: ["buy milk", "call mom"]
	var legacy []string
	if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}

	tasks = make([]Task, 0, len(legacy))
	for _, text := range legacy {
		tasks = append(tasks, Task{Text: text})
	}

	log.Info().Int("count", len(tasks)).Msg("migrated legacy task list")
	if err := s.save(tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// save encodes and persists the list. Caller holds the lock.
func (s *Store) save(tasks []Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	if err := s.persist.Save(string(data)); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}
