package domain

import (
	"testing"
	"time"
)

func TestPriorityRank(t *testing.T) {
	if !(PriorityLow.Rank() < PriorityMedium.Rank() && PriorityMedium.Rank() < PriorityHigh.Rank()) {
		t.Fatal("priority ranks must be ordered low < medium < high")
	}
	if Priority("urgent").Valid() {
		t.Fatal("unknown priority must be invalid")
	}
	if _, err := ParsePriority("High"); err == nil {
		t.Fatal("priority parsing is case-sensitive")
	}
}

func TestNewTaskDefaults(t *testing.T) {
	in := NewTask{Title: "Write report"}
	in.ApplyDefaults()
	if in.Priority != PriorityMedium || in.Category != DefaultCategory {
		t.Fatalf("defaults not applied: %+v", in)
	}
	if err := in.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	empty := NewTask{}
	empty.ApplyDefaults()
	if err := empty.Validate(); !IsDomainError(err, ErrCodeInvalid) {
		t.Fatalf("expected INVALID for empty title, got %v", err)
	}

	blank := NewTask{Title: " \t"}
	blank.ApplyDefaults()
	if err := blank.Validate(); !IsDomainError(err, ErrCodeInvalid) {
		t.Fatalf("expected INVALID for blank title, got %v", err)
	}
}

func TestSetCompletedKeepsCompletedAtConsistent(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	task := Task{ID: 1, Title: "a"}

	task.SetCompleted(true, now)
	if !task.Completed || task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
		t.Fatalf("completion not recorded: %+v", task)
	}

	task.SetCompleted(true, now.Add(time.Hour))
	if !task.CompletedAt.Equal(now) {
		t.Fatal("re-completing must keep the original completed_at")
	}

	task.SetCompleted(false, now)
	if task.Completed || task.CompletedAt != nil {
		t.Fatalf("un-completing must clear completed_at: %+v", task)
	}
}

func TestTaskPatchApply(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(48 * time.Hour)
	task := Task{ID: 7, Title: "old", Priority: PriorityLow, Category: "work", DueDate: &due}

	title := "new"
	high := PriorityHigh
	done := true
	patch := TaskPatch{Title: &title, Priority: &high, Completed: &done, ClearDue: true}
	if patch.Empty() {
		t.Fatal("patch should not be empty")
	}
	if err := patch.Apply(&task, now); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if task.Title != "new" || task.Priority != PriorityHigh || task.DueDate != nil {
		t.Fatalf("patch not applied: %+v", task)
	}
	if !task.Completed || task.CompletedAt == nil {
		t.Fatalf("completion not applied: %+v", task)
	}

	blank := ""
	if err := (TaskPatch{Title: &blank}).Apply(&task, now); !IsDomainError(err, ErrCodeInvalid) {
		t.Fatalf("expected INVALID for blank title, got %v", err)
	}
	if !(TaskPatch{}).Empty() {
		t.Fatal("zero patch should be empty")
	}
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	created := now.Add(-72 * time.Hour)
	doneA := created.Add(10 * time.Hour)
	doneB := created.Add(21 * time.Hour)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tasks := []Task{
		{ID: 1, Priority: PriorityHigh, Completed: true, CreatedAt: created, CompletedAt: &doneA},
		{ID: 2, Priority: PriorityHigh, Completed: true, CreatedAt: created, CompletedAt: &doneB},
		{ID: 3, Priority: PriorityMedium, CreatedAt: created, DueDate: &past},
		{ID: 4, Priority: PriorityLow, CreatedAt: created, DueDate: &future},
		{ID: 5, Priority: PriorityLow, Completed: true, CreatedAt: created, DueDate: &past},
	}

	got := ComputeStats(tasks, now)
	want := Stats{
		Total:                  5,
		Completed:              3,
		Pending:                2,
		HighPriority:           2,
		MediumPriority:         1,
		LowPriority:            2,
		Overdue:                1,
		AverageCompletionHours: 16, // (10 + 21) / 2 = 15.5 rounds half away from zero
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if empty := ComputeStats(nil, now); empty != (Stats{}) {
		t.Fatalf("empty stats = %+v", empty)
	}
}
