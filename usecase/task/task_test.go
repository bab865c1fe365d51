package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/query"
	"github.com/fastygo/tasks/repository"
	"github.com/fastygo/tasks/repository/memory"
)

// fakeCache versions its pages the way the Redis cache does: Invalidate
// moves to a new version and writes under an older one are dropped.
type fakeCache struct {
	mu          sync.Mutex
	pages       map[domain.QueryParams]domain.Page
	version     int64
	gets        int
	invalidated int
	getErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{pages: make(map[domain.QueryParams]domain.Page)}
}

func (c *fakeCache) Get(ctx context.Context, params domain.QueryParams) (*domain.Page, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, 0, false, c.getErr
	}
	page, ok := c.pages[params]
	if !ok {
		return nil, c.version, false, nil
	}
	return &page, c.version, true, nil
}

func (c *fakeCache) Set(ctx context.Context, params domain.QueryParams, version int64, page domain.Page) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version != c.version {
		return nil
	}
	c.pages[params] = page
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.version++
	c.pages = make(map[domain.QueryParams]domain.Page)
	return nil
}

// interleavedRepo runs afterFind once, after the first query has read its rows.
type interleavedRepo struct {
	repository.TaskRepository
	once      sync.Once
	afterFind func()
}

func (r *interleavedRepo) Find(ctx context.Context, p query.Predicate, s query.Sort, limit, offset int) ([]domain.Task, error) {
	rows, err := r.TaskRepository.Find(ctx, p, s, limit, offset)
	r.once.Do(func() {
		if r.afterFind != nil {
			r.afterFind()
		}
	})
	return rows, err
}

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newUseCase(opts ...Option) *UseCase {
	opts = append(opts, WithClock(func() time.Time { return fixedNow }))
	return New(memory.NewTaskRepository(), query.CountGlobal, nil, opts...)
}

func TestCreateTaskDefaultsAndValidation(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()

	created, err := uc.CreateTask(ctx, domain.NewTask{Title: "Plan sprint"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Priority != domain.PriorityMedium || created.Category != "general" || created.Completed {
		t.Fatalf("defaults not applied: %+v", created)
	}

	if _, err := uc.CreateTask(ctx, domain.NewTask{}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected INVALID, got %v", err)
	}
}

func TestToggleTaskSetsAndClearsCompletedAt(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()
	created, _ := uc.CreateTask(ctx, domain.NewTask{Title: "a"})

	done, err := uc.ToggleTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !done.Completed || done.CompletedAt == nil || !done.CompletedAt.Equal(fixedNow) {
		t.Fatalf("toggle on: %+v", done)
	}

	undone, err := uc.ToggleTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if undone.Completed || undone.CompletedAt != nil {
		t.Fatalf("toggle off: %+v", undone)
	}

	if _, err := uc.ToggleTask(ctx, 999); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("toggle unknown: %v", err)
	}
}

func TestUpdateTask(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()
	created, _ := uc.CreateTask(ctx, domain.NewTask{Title: "a"})

	if _, err := uc.UpdateTask(ctx, created.ID, domain.TaskPatch{}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("empty patch: %v", err)
	}

	category := "health"
	updated, err := uc.UpdateTask(ctx, created.ID, domain.TaskPatch{Category: &category})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Category != "health" || updated.Title != "a" || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("update result: %+v", updated)
	}
}

func TestDeleteTaskIsAwaitedAndNotFoundAware(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()
	created, _ := uc.CreateTask(ctx, domain.NewTask{Title: "a"})

	if err := uc.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := uc.GetTask(ctx, created.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("task still readable after delete: %v", err)
	}
	if err := uc.DeleteTask(ctx, created.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestListTasksUsesAndInvalidatesCache(t *testing.T) {
	cache := newFakeCache()
	uc := newUseCase(WithCache(cache))
	ctx := context.Background()
	params := domain.QueryParams{Page: 1, Limit: 10}

	if _, err := uc.CreateTask(ctx, domain.NewTask{Title: "a"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if cache.invalidated != 1 {
		t.Fatalf("create must invalidate the cache, got %d", cache.invalidated)
	}

	first, err := uc.ListTasks(ctx, params)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cache.pages) != 1 {
		t.Fatal("result was not cached")
	}
	second, _ := uc.ListTasks(ctx, params)
	if len(second.Data) != len(first.Data) {
		t.Fatal("cached page differs")
	}

	if _, err := uc.CreateTask(ctx, domain.NewTask{Title: "b"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	third, _ := uc.ListTasks(ctx, params)
	if third.Pagination.TotalItems != 2 {
		t.Fatalf("stale page served after write: %+v", third.Pagination)
	}
}

func TestListTasksDoesNotCachePageOverlappingWrite(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	repo := &interleavedRepo{TaskRepository: memory.NewTaskRepository()}
	uc := New(repo, query.CountGlobal, nil, WithCache(cache), WithClock(func() time.Time { return fixedNow }))

	created, err := uc.CreateTask(ctx, domain.NewTask{Title: "doomed"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.afterFind = func() {
		if err := uc.DeleteTask(ctx, created.ID); err != nil {
			t.Errorf("delete: %v", err)
		}
	}

	params := domain.QueryParams{Page: 1, Limit: 10}
	first, err := uc.ListTasks(ctx, params)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Data) != 1 {
		t.Fatalf("in-flight query should still see the task, got %d rows", len(first.Data))
	}
	page, err := uc.ListTasks(ctx, params)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Data) != 0 {
		t.Fatalf("page computed before the delete was served after it: %+v", page.Data)
	}
}

func TestListTasksSurvivesCacheFailure(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	uc := newUseCase(WithCache(cache))
	ctx := context.Background()
	_, _ = uc.CreateTask(ctx, domain.NewTask{Title: "a"})

	page, err := uc.ListTasks(ctx, domain.QueryParams{})
	if err != nil {
		t.Fatalf("cache failure must not fail the query: %v", err)
	}
	if len(page.Data) != 1 {
		t.Fatalf("got %d rows", len(page.Data))
	}
}

func TestStatsHonourFilters(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()
	_, _ = uc.CreateTask(ctx, domain.NewTask{Title: "a", Priority: domain.PriorityHigh})
	_, _ = uc.CreateTask(ctx, domain.NewTask{Title: "b", Priority: domain.PriorityLow})

	stats, err := uc.Stats(ctx, domain.Filters{Priority: domain.PriorityHigh})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 || stats.HighPriority != 1 || stats.LowPriority != 0 {
		t.Fatalf("stats: %+v", stats)
	}
}

func TestReseed(t *testing.T) {
	cache := newFakeCache()
	uc := newUseCase(WithCache(cache))
	ctx := context.Background()
	_, _ = uc.CreateTask(ctx, domain.NewTask{Title: "old"})

	err := uc.Reseed(ctx, []domain.Task{
		{Title: "x", Priority: domain.PriorityLow, Category: "work"},
		{Title: "y", Priority: domain.PriorityLow, Category: "work"},
	})
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	page, _ := uc.ListTasks(ctx, domain.QueryParams{})
	if page.Pagination.TotalItems != 2 {
		t.Fatalf("reseed left %d tasks", page.Pagination.TotalItems)
	}
}
