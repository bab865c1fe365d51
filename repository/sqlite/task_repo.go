// Package sqlite stores tasks in an embedded SQLite database through
// database/sql and the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/query"
	"github.com/fastygo/tasks/repository"
)

const (
	taskTable   = "tasks"
	taskColumns = "id, title, description, priority, category, completed, due_date, created_at, completed_at"

	// timeLayout is fixed width so lexical order equals chronological order.
	timeLayout = "2006-01-02T15:04:05.000Z"
)

type taskRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewTaskRepository returns a TaskRepository backed by db. The schema is
// expected to be migrated already.
func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &taskRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *taskRepository) Find(ctx context.Context, p query.Predicate, s query.Sort, limit, offset int) ([]domain.Task, error) {
	stmt, args := query.SelectSQL(query.SQLite, taskTable, taskColumns, p, s, limit, offset)
	return r.queryTasks(ctx, stmt, args...)
}

func (r *taskRepository) Count(ctx context.Context, p query.Predicate) (int, error) {
	stmt, args := query.CountSQL(query.SQLite, taskTable, p)
	var count int
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	stmt := "SELECT " + taskColumns + " FROM tasks WHERE id = ?"
	task, err := scanTask(r.db.QueryRowContext(ctx, stmt, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	return task, err
}

func (r *taskRepository) Create(ctx context.Context, in domain.NewTask) (*domain.Task, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (title, description, priority, category, completed, due_date, created_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		in.Title, nullString(in.Description), string(in.Priority), in.Category,
		formatTime(in.DueDate), r.now().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		SET title = ?, description = ?, priority = ?, category = ?, completed = ?, due_date = ?, completed_at = ?
		WHERE id = ?`,
		task.Title, nullString(task.Description), string(task.Priority), task.Category,
		query.SQLite.Bool(task.Completed), formatTime(task.DueDate), formatTime(task.CompletedAt),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireAffected(res)
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireAffected(res)
}

// Stats aggregates in Go: SQLite has no interval arithmetic over the text timestamps.
func (r *taskRepository) Stats(ctx context.Context, p query.Predicate, now time.Time) (domain.Stats, error) {
	where, args := query.WhereSQL(query.SQLite, p)
	tasks, err := r.queryTasks(ctx, "SELECT "+taskColumns+" FROM tasks"+where, args...)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.ComputeStats(tasks, now), nil
}

func (r *taskRepository) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("reset tasks: %w", err)
	}
	return nil
}

func (r *taskRepository) Insert(ctx context.Context, tasks []domain.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tasks (title, description, priority, category, completed, due_date, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range tasks {
		t := &tasks[i]
		created := t.CreatedAt
		if created.IsZero() {
			created = r.now()
		}
		if _, err := stmt.ExecContext(ctx,
			t.Title, nullString(t.Description), string(t.Priority), t.Category,
			query.SQLite.Bool(t.Completed), formatTime(t.DueDate),
			created.UTC().Format(timeLayout), formatTime(t.CompletedAt),
		); err != nil {
			return fmt.Errorf("insert task %q: %w", t.Title, err)
		}
	}
	return tx.Commit()
}

func (r *taskRepository) queryTasks(ctx context.Context, stmt string, args ...interface{}) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task                      domain.Task
		priority                  string
		description               sql.NullString
		completed                 int64
		due, created, completedAt sql.NullString
	)
	if err := row.Scan(&task.ID, &task.Title, &description, &priority, &task.Category,
		&completed, &due, &created, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.Priority = domain.Priority(priority)
	task.Completed = completed != 0
	if description.Valid {
		d := description.String
		task.Description = &d
	}

	var err error
	if task.DueDate, err = parseTime(due); err != nil {
		return nil, err
	}
	if task.CompletedAt, err = parseTime(completedAt); err != nil {
		return nil, err
	}
	createdAt, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	if createdAt != nil {
		task.CreatedAt = *createdAt
	}
	return &task, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func formatTime(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, v.String)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", v.String, err)
		}
	}
	t = t.UTC()
	return &t, nil
}
