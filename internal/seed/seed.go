// Package seed generates demonstration tasks.
package seed

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/fastygo/tasks/domain"
)

const DefaultCount = 150

var Categories = []string{"work", "personal", "shopping", "health", "education"}

const day = 24 * time.Hour

// Generator produces random tasks relative to a fixed reference time.
type Generator struct {
	rnd *rand.Rand
	now time.Time
}

// NewGenerator returns a deterministic generator for the given seed.
func NewGenerator(seed uint64, now time.Time) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: now.UTC(),
	}
}

// Generate builds count tasks numbered from 1. Roughly 30% are completed;
// each is created within the last 30 days, due within 14 days of creation
// and, when completed, completed within 7 days of creation.
func (g *Generator) Generate(count int) []domain.Task {
	tasks := make([]domain.Task, 0, count)
	for i := 1; i <= count; i++ {
		priority := domain.Priorities[g.rnd.IntN(len(domain.Priorities))]
		category := Categories[g.rnd.IntN(len(Categories))]
		completed := g.rnd.Float64() > 0.7

		created := g.now.Add(-g.within(30 * day)).Truncate(time.Millisecond)
		due := created.Add(g.within(14 * day)).Truncate(time.Millisecond)
		description := fmt.Sprintf("Description for task %d. This is a %s priority %s task.", i, priority, category)

		task := domain.Task{
			Title:       fmt.Sprintf("Task %d: %s item", i, category),
			Description: &description,
			Priority:    priority,
			Category:    category,
			Completed:   completed,
			DueDate:     &due,
			CreatedAt:   created,
		}
		if completed {
			at := created.Add(g.within(7 * day)).Truncate(time.Millisecond)
			task.CompletedAt = &at
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func (g *Generator) within(span time.Duration) time.Duration {
	return time.Duration(g.rnd.Int64N(int64(span)))
}
