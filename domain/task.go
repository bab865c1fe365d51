package domain

import (
	"math"
	"strings"
	"time"
)

const (
	DefaultCategory = "general"
)

// Task represents a tracked work item.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    Priority   `json:"priority"`
	Category    string     `json:"category"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// IsOverdue reports whether an open task is past its due date.
func (t *Task) IsOverdue(now time.Time) bool {
	if t == nil || t.Completed || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(now)
}

// SetCompleted flips the completion flag and keeps completed_at consistent with it.
func (t *Task) SetCompleted(completed bool, now time.Time) {
	if t == nil {
		return
	}
	t.Completed = completed
	if !completed {
		t.CompletedAt = nil
		return
	}
	if t.CompletedAt == nil {
		at := now
		t.CompletedAt = &at
	}
}

// NewTask carries the fields accepted on creation.
type NewTask struct {
	Title       string
	Description *string
	Priority    Priority
	Category    string
	DueDate     *time.Time
}

// ApplyDefaults fills in priority and category when they were omitted.
func (n *NewTask) ApplyDefaults() {
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if n.Category == "" {
		n.Category = DefaultCategory
	}
}

// Validate checks the creation payload.
func (n *NewTask) Validate() error {
	if n == nil {
		return ErrInvalidPayload
	}
	if strings.TrimSpace(n.Title) == "" {
		return NewError(ErrCodeInvalid, "title is required")
	}
	if !n.Priority.Valid() {
		return NewError(ErrCodeInvalid, "priority must be one of low, medium, high")
	}
	return nil
}

// TaskPatch is a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *Priority
	Category    *string
	Completed   *bool
	DueDate     *time.Time
	ClearDue    bool
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Category == nil && p.Completed == nil && p.DueDate == nil && !p.ClearDue
}

// Apply mutates the task with the patch fields.
func (p TaskPatch) Apply(t *Task, now time.Time) error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return NewError(ErrCodeInvalid, "title must not be empty")
		}
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return NewError(ErrCodeInvalid, "priority must be one of low, medium, high")
		}
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		if *p.Category == "" {
			return NewError(ErrCodeInvalid, "category must not be empty")
		}
		t.Category = *p.Category
	}
	switch {
	case p.ClearDue:
		t.DueDate = nil
	case p.DueDate != nil:
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.Completed != nil && *p.Completed != t.Completed {
		t.SetCompleted(*p.Completed, now)
	}
	return nil
}

// Stats summarises a set of tasks.
type Stats struct {
	Total                  int `json:"total"`
	Completed              int `json:"completed"`
	Pending                int `json:"pending"`
	HighPriority           int `json:"highPriority"`
	MediumPriority         int `json:"mediumPriority"`
	LowPriority            int `json:"lowPriority"`
	Overdue                int `json:"overdue"`
	AverageCompletionHours int `json:"averageCompletionHours"`
}

// ComputeStats aggregates tasks the way the statistics panel presents them.
func ComputeStats(tasks []Task, now time.Time) Stats {
	var (
		stats     Stats
		doneCount int
		doneTotal time.Duration
	)
	for i := range tasks {
		t := &tasks[i]
		stats.Total++
		if t.Completed {
			stats.Completed++
			if t.CompletedAt != nil {
				doneCount++
				doneTotal += t.CompletedAt.Sub(t.CreatedAt)
			}
		} else {
			stats.Pending++
		}
		switch t.Priority {
		case PriorityHigh:
			stats.HighPriority++
		case PriorityMedium:
			stats.MediumPriority++
		case PriorityLow:
			stats.LowPriority++
		}
		if t.IsOverdue(now) {
			stats.Overdue++
		}
	}
	stats.AverageCompletionHours = AverageHours(doneTotal, doneCount)
	return stats
}

// AverageHours rounds total/count to whole hours; zero when count is zero.
func AverageHours(total time.Duration, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Round(total.Hours() / float64(count)))
}
