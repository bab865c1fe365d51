// Package memory keeps tasks in process memory. It backs the "memory"
// database driver and the tests of the layers above storage.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/query"
	"github.com/fastygo/tasks/repository"
)

type taskRepository struct {
	mu     sync.RWMutex
	tasks  map[int64]domain.Task
	nextID int64
	now    func() time.Time
}

// NewTaskRepository returns an empty in-memory TaskRepository.
func NewTaskRepository() repository.TaskRepository {
	return &taskRepository{
		tasks: make(map[int64]domain.Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *taskRepository) Find(ctx context.Context, p query.Predicate, s query.Sort, limit, offset int) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matched := r.matching(p)
	sort.Slice(matched, func(i, j int) bool { return s.Less(matched[i], matched[j]) })

	if offset >= len(matched) {
		return []domain.Task{}, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}

func (r *taskRepository) Count(ctx context.Context, p query.Predicate) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(r.matching(p)), nil
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

func (r *taskRepository) Create(ctx context.Context, in domain.NewTask) (*domain.Task, error) {
	r.mu.Lock()
	r.nextID++
	task := domain.Task{
		ID:          r.nextID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Category:    in.Category,
		DueDate:     in.DueDate,
		CreatedAt:   r.now(),
	}
	r.tasks[task.ID] = task
	r.mu.Unlock()

	return r.GetByID(ctx, task.ID)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.tasks[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	updated := *cloneTask(*task)
	updated.CreatedAt = current.CreatedAt
	r.tasks[task.ID] = updated
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *taskRepository) Stats(ctx context.Context, p query.Predicate, now time.Time) (domain.Stats, error) {
	return domain.ComputeStats(r.matching(p), now), nil
}

func (r *taskRepository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = make(map[int64]domain.Task)
	return nil
}

func (r *taskRepository) Insert(ctx context.Context, tasks []domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, task := range tasks {
		r.nextID++
		task.ID = r.nextID
		if task.CreatedAt.IsZero() {
			task.CreatedAt = r.now()
		}
		r.tasks[task.ID] = *cloneTask(task)
	}
	return nil
}

func (r *taskRepository) matching(p query.Predicate) []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		if p.Match(task) {
			out = append(out, *cloneTask(task))
		}
	}
	return out
}

func cloneTask(t domain.Task) *domain.Task {
	out := t
	if t.Description != nil {
		d := *t.Description
		out.Description = &d
	}
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		out.CompletedAt = &at
	}
	return &out
}
