package postgres

import (
	"time"

	"github.com/fastygo/tasks/domain"
)

const (
	taskTable   = "tasks"
	taskColumns = "id, title, description, priority, category, completed, due_date, created_at, completed_at"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func nullTime(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC()
}

func normalizeTimes(task *domain.Task) {
	task.CreatedAt = task.CreatedAt.UTC()
	if task.DueDate != nil {
		due := task.DueDate.UTC()
		task.DueDate = &due
	}
	if task.CompletedAt != nil {
		at := task.CompletedAt.UTC()
		task.CompletedAt = &at
	}
}
