package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/query"
	"github.com/fastygo/tasks/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) Find(ctx context.Context, p query.Predicate, s query.Sort, limit, offset int) ([]domain.Task, error) {
	stmt, args := query.SelectSQL(query.Postgres, taskTable, taskColumns, p, s, limit, offset)
	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0, limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) Count(ctx context.Context, p query.Predicate) (int, error) {
	stmt, args := query.CountSQL(query.Postgres, taskTable, p)
	var count int64
	if err := r.pool.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("could not count tasks: %w", err)
	}
	return int(count), nil
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	const stmt = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE id = $1
	`
	return scanTask(r.pool.QueryRow(ctx, stmt, id))
}

func (r *taskRepository) Create(ctx context.Context, in domain.NewTask) (*domain.Task, error) {
	const stmt = `
	INSERT INTO tasks (title, description, priority, category, due_date)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id
	`
	var id int64
	if err := r.pool.QueryRow(ctx, stmt,
		in.Title,
		in.Description,
		string(in.Priority),
		in.Category,
		nullTime(in.DueDate),
	).Scan(&id); err != nil {
		return nil, fmt.Errorf("could not create task: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const stmt = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		priority = $4,
		category = $5,
		completed = $6,
		due_date = $7,
		completed_at = $8
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, stmt,
		task.ID,
		task.Title,
		task.Description,
		string(task.Priority),
		task.Category,
		task.Completed,
		nullTime(task.DueDate),
		nullTime(task.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("could not update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	const stmt = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("could not remove task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Stats(ctx context.Context, p query.Predicate, now time.Time) (domain.Stats, error) {
	b := query.NewBinder(query.Postgres)
	nowArg := b.Bind(now.UTC())
	stmt := `
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE completed),
		COUNT(*) FILTER (WHERE priority = 'high'),
		COUNT(*) FILTER (WHERE priority = 'medium'),
		COUNT(*) FILTER (WHERE priority = 'low'),
		COUNT(*) FILTER (WHERE NOT completed AND due_date IS NOT NULL AND due_date < ` + nowArg + `),
		COUNT(*) FILTER (WHERE completed AND completed_at IS NOT NULL),
		COALESCE(SUM(EXTRACT(EPOCH FROM completed_at - created_at)) FILTER (WHERE completed AND completed_at IS NOT NULL), 0)::float8
	FROM tasks`
	if where := p.Where(b); where != "" {
		stmt += " WHERE " + where
	}

	var (
		total, completed, high, medium, low, overdue, doneCount int64
		doneSeconds                                             float64
	)
	if err := r.pool.QueryRow(ctx, stmt, b.Args()...).Scan(
		&total, &completed, &high, &medium, &low, &overdue, &doneCount, &doneSeconds,
	); err != nil {
		return domain.Stats{}, fmt.Errorf("could not aggregate tasks: %w", err)
	}

	return domain.Stats{
		Total:                  int(total),
		Completed:              int(completed),
		Pending:                int(total - completed),
		HighPriority:           int(high),
		MediumPriority:         int(medium),
		LowPriority:            int(low),
		Overdue:                int(overdue),
		AverageCompletionHours: domain.AverageHours(time.Duration(doneSeconds*float64(time.Second)), int(doneCount)),
	}, nil
}

func (r *taskRepository) Reset(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("could not clear tasks: %w", err)
	}
	return nil
}

func (r *taskRepository) Insert(ctx context.Context, tasks []domain.Task) error {
	const stmt = `
	INSERT INTO tasks (title, description, priority, category, completed, due_date, created_at, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()), $8)
	`
	batch := &pgx.Batch{}
	for i := range tasks {
		t := &tasks[i]
		created := &t.CreatedAt
		batch.Queue(stmt,
			t.Title,
			t.Description,
			string(t.Priority),
			t.Category,
			t.Completed,
			nullTime(t.DueDate),
			nullTime(created),
			nullTime(t.CompletedAt),
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("could not insert tasks: %w", err)
	}
	return nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task     domain.Task
		priority string
	)
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&priority,
		&task.Category,
		&task.Completed,
		&task.DueDate,
		&task.CreatedAt,
		&task.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("could not scan task: %w", err)
	}
	task.Priority = domain.Priority(priority)
	normalizeTimes(&task)
	return &task, nil
}
