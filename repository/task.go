package repository

import (
	"context"
	"time"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/query"
)

// TaskRepository is the row source of the query engine plus the write path.
type TaskRepository interface {
	query.RowSource

	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	// Create inserts the task and returns the stored row, re-read by its new id.
	Create(ctx context.Context, task domain.NewTask) (*domain.Task, error)
	// Update persists every mutable field of task.
	Update(ctx context.Context, task *domain.Task) error
	// Delete removes the task; it returns domain.ErrTaskNotFound when no row was affected.
	Delete(ctx context.Context, id int64) error
	// Stats aggregates the tasks matching p.
	Stats(ctx context.Context, p query.Predicate, now time.Time) (domain.Stats, error)
	// Reset deletes every task.
	Reset(ctx context.Context) error
	// Insert stores fully populated tasks, keeping their timestamps. Used for seeding.
	Insert(ctx context.Context, tasks []domain.Task) error
}

// PageCache stores query results keyed by normalized query parameters.
type PageCache interface {
	// Get returns the cached page, if any, and the cache version it looked at.
	Get(ctx context.Context, params domain.QueryParams) (page *domain.Page, version int64, found bool, err error)
	// Set stores page under version. A page stored under a version that has
	// since been invalidated is never returned by Get.
	Set(ctx context.Context, params domain.QueryParams, version int64, page domain.Page) error
	// Invalidate makes every cached page stale.
	Invalidate(ctx context.Context) error
}
