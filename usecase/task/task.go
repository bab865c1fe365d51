package task

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/internal/metrics"
	"github.com/fastygo/tasks/pkg/logger"
	"github.com/fastygo/tasks/query"
	"github.com/fastygo/tasks/repository"
)

type UseCase struct {
	tasks   repository.TaskRepository
	engine  *query.Engine
	cache   repository.PageCache
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*UseCase)

// WithCache enables the page cache for ListTasks.
func WithCache(cache repository.PageCache) Option {
	return func(uc *UseCase) { uc.cache = cache }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *UseCase) { uc.metrics = m }
}

// WithClock overrides the time source used for completion and overdue checks.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) { uc.now = now }
}

func New(tasks repository.TaskRepository, scope query.CountScope, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		tasks:  tasks,
		engine: query.NewEngine(tasks, scope),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ListTasks executes one engine query, consulting the page cache first when enabled.
// Cache failures are logged and never fail the request.
func (uc *UseCase) ListTasks(ctx context.Context, params domain.QueryParams) (domain.Page, error) {
	params = params.Normalize()
	log := logger.WithRequestID(ctx, uc.logger)

	var (
		version   int64
		cacheable bool
	)
	if uc.cache != nil {
		page, v, ok, err := uc.cache.Get(ctx, params)
		if err != nil {
			log.Warn("page cache read failed", zap.Error(err))
		}
		uc.metrics.CacheLookup(ok)
		if ok {
			return *page, nil
		}
		version, cacheable = v, err == nil
	}

	started := time.Now()
	page, err := uc.engine.Execute(ctx, params)
	uc.metrics.ObserveQuery(time.Since(started))
	if err != nil {
		return domain.Page{}, domain.WrapError(domain.ErrCodeInternal, "could not query tasks", err)
	}

	if cacheable {
		if err := uc.cache.Set(ctx, params, version, page); err != nil {
			log.Warn("page cache write failed", zap.Error(err))
		}
	}
	return page, nil
}

func (uc *UseCase) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "could not load task")
	}
	return task, nil
}

func (uc *UseCase) CreateTask(ctx context.Context, in domain.NewTask) (*domain.Task, error) {
	in.ApplyDefaults()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	created, err := uc.tasks.Create(ctx, in)
	if err != nil {
		return nil, classify(err, "could not create task")
	}
	uc.invalidate(ctx)
	logger.WithRequestID(ctx, uc.logger).Info("task created", zap.Int64("task_id", created.ID))
	return created, nil
}

// UpdateTask applies a partial update and returns the stored task.
func (uc *UseCase) UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Empty() {
		return nil, domain.Validationf("no fields to update")
	}
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "could not load task")
	}
	if err := patch.Apply(task, uc.now()); err != nil {
		return nil, err
	}
	return uc.save(ctx, task)
}

// ToggleTask flips completion, setting or clearing completed_at.
func (uc *UseCase) ToggleTask(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "could not load task")
	}
	task.SetCompleted(!task.Completed, uc.now())
	return uc.save(ctx, task)
}

// DeleteTask removes a task permanently. Unknown ids yield NOT_FOUND.
func (uc *UseCase) DeleteTask(ctx context.Context, id int64) error {
	if err := uc.tasks.Delete(ctx, id); err != nil {
		return classify(err, "could not delete task")
	}
	uc.invalidate(ctx)
	logger.WithRequestID(ctx, uc.logger).Info("task deleted", zap.Int64("task_id", id))
	return nil
}

// Stats aggregates over the tasks matching the filters; paging is ignored.
func (uc *UseCase) Stats(ctx context.Context, filters domain.Filters) (domain.Stats, error) {
	stats, err := uc.tasks.Stats(ctx, query.BuildPredicate(filters), uc.now())
	if err != nil {
		return domain.Stats{}, classify(err, "could not compute stats")
	}
	return stats, nil
}

// Reseed replaces every task with the given set.
func (uc *UseCase) Reseed(ctx context.Context, tasks []domain.Task) error {
	if err := uc.tasks.Reset(ctx); err != nil {
		return classify(err, "could not clear tasks")
	}
	if err := uc.tasks.Insert(ctx, tasks); err != nil {
		return classify(err, "could not insert tasks")
	}
	uc.invalidate(ctx)
	return nil
}

func (uc *UseCase) save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, classify(err, "could not update task")
	}
	uc.invalidate(ctx)
	return uc.GetTask(ctx, task.ID)
}

func (uc *UseCase) invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("page cache invalidation failed", zap.Error(err))
	}
}

// classify keeps domain errors as they are and wraps anything else as INTERNAL.
func classify(err error, message string) error {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return domain.WrapError(domain.ErrCodeInternal, message, err)
}
