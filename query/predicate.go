// Package query turns filter, search, sort and paging parameters into a
// bounded page of tasks. Predicates and orderings are plain values that can
// be evaluated in Go or rendered to SQL, so every row source applies the
// same semantics.
package query

import (
	"strings"

	"github.com/fastygo/tasks/domain"
)

// Predicate is the AND of every supplied filter. The zero value matches every task.
type Predicate struct {
	Priority  domain.Priority
	Category  string
	Search    string
	Completed *bool
}

// BuildPredicate maps optional filters to a predicate. Absent fields add no condition.
func BuildPredicate(f domain.Filters) Predicate {
	p := Predicate{
		Priority: f.Priority,
		Category: f.Category,
		Search:   f.Search,
	}
	if completed, ok := f.CompletedFilter(); ok {
		p.Completed = &completed
	}
	return p
}

// IsEmpty reports whether the predicate imposes no condition.
func (p Predicate) IsEmpty() bool {
	return p.Priority == "" && p.Category == "" && p.Search == "" && p.Completed == nil
}

// Match evaluates the predicate against a single task.
func (p Predicate) Match(t domain.Task) bool {
	if p.Priority != "" && t.Priority != p.Priority {
		return false
	}
	if p.Category != "" && t.Category != p.Category {
		return false
	}
	if p.Completed != nil && t.Completed != *p.Completed {
		return false
	}
	if p.Search != "" && !matchesSearch(t, p.Search) {
		return false
	}
	return true
}

// matchesSearch is a case-sensitive substring test over title, description,
// priority and category.
func matchesSearch(t domain.Task, term string) bool {
	if strings.Contains(t.Title, term) {
		return true
	}
	if t.Description != nil && strings.Contains(*t.Description, term) {
		return true
	}
	return strings.Contains(string(t.Priority), term) || strings.Contains(t.Category, term)
}

// Where renders the predicate as a SQL boolean expression, binding its
// arguments through b. It returns an empty string for the empty predicate.
func (p Predicate) Where(b *Binder) string {
	var conditions []string

	if p.Priority != "" {
		conditions = append(conditions, "priority = "+b.Bind(string(p.Priority)))
	}
	if p.Category != "" {
		conditions = append(conditions, "category = "+b.Bind(p.Category))
	}
	if p.Search != "" {
		columns := []string{"title", "description", "priority", "category"}
		alternatives := make([]string, 0, len(columns))
		for _, column := range columns {
			alternatives = append(alternatives, b.Dialect().Contains(column, b.Bind(p.Search)))
		}
		conditions = append(conditions, "("+strings.Join(alternatives, " OR ")+")")
	}
	if p.Completed != nil {
		conditions = append(conditions, "completed = "+b.Bind(b.Dialect().Bool(*p.Completed)))
	}

	return strings.Join(conditions, " AND ")
}
