package memory

import (
	"context"
	"testing"
	"time"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/query"
)

func TestTaskRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository()

	created, err := repo.Create(ctx, domain.NewTask{Title: "Write report", Priority: domain.PriorityHigh, Category: "work"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 1 || created.CreatedAt.IsZero() {
		t.Fatalf("created: %+v", created)
	}

	created.Title = "Mutated copy"
	again, _ := repo.GetByID(ctx, 1)
	if again.Title != "Write report" {
		t.Fatal("returned task must not alias stored state")
	}

	again.SetCompleted(true, time.Now().UTC())
	if err := repo.Update(ctx, again); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.Update(ctx, &domain.Task{ID: 99}); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("update missing: %v", err)
	}
	if err := repo.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, 1); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestTaskRepositoryFindPagesInOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var tasks []domain.Task
	for i := 0; i < 5; i++ {
		due := base.Add(time.Duration(5-i) * time.Hour)
		tasks = append(tasks, domain.Task{Title: "t", Priority: domain.PriorityLow, Category: "work", DueDate: &due, CreatedAt: base})
	}
	tasks = append(tasks, domain.Task{Title: "undated", Priority: domain.PriorityLow, Category: "home", CreatedAt: base})
	if err := repo.Insert(ctx, tasks); err != nil {
		t.Fatalf("insert: %v", err)
	}

	sortSpec := query.ResolveSort(domain.SortByDueDate, domain.SortAsc)
	page, err := repo.Find(ctx, query.Predicate{}, sortSpec, 4, 2)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	var ids []int64
	for _, task := range page {
		ids = append(ids, task.ID)
	}
	want := []int64{3, 2, 1, 6}
	if len(ids) != len(want) {
		t.Fatalf("ids %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids %v, want %v", ids, want)
		}
	}

	empty, err := repo.Find(ctx, query.Predicate{}, sortSpec, 4, 10)
	if err != nil || len(empty) != 0 {
		t.Fatalf("past the end: %v %v", empty, err)
	}

	work := query.BuildPredicate(domain.Filters{Category: "work"})
	count, err := repo.Count(ctx, work)
	if err != nil || count != 5 {
		t.Fatalf("count %d %v", count, err)
	}
}
