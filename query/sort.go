package query

import (
	"fmt"
	"strings"

	"github.com/fastygo/tasks/domain"
)

// Sort is a total order over tasks: the requested key, nulls last for
// due_date in either direction, then id ascending.
type Sort struct {
	Field domain.SortField
	Order domain.SortOrder
}

// ResolveSort maps a sort key and direction to a concrete ordering.
// Unknown values fall back to due_date ascending.
func ResolveSort(field domain.SortField, order domain.SortOrder) Sort {
	if !field.Valid() {
		field = domain.SortByDueDate
	}
	if !order.Valid() {
		order = domain.SortAsc
	}
	return Sort{Field: field, Order: order}
}

// Compare returns a negative number when a sorts before b, positive when
// after, and zero only for the same id.
func (s Sort) Compare(a, b domain.Task) int {
	if s.Field == domain.SortByDueDate {
		switch {
		case a.DueDate == nil && b.DueDate != nil:
			return 1
		case a.DueDate != nil && b.DueDate == nil:
			return -1
		}
	}

	if c := s.directed(s.compareKey(a, b)); c != 0 {
		return c
	}

	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// Less reports whether a sorts strictly before b.
func (s Sort) Less(a, b domain.Task) bool {
	return s.Compare(a, b) < 0
}

func (s Sort) directed(c int) int {
	if s.Order == domain.SortDesc {
		return -c
	}
	return c
}

func (s Sort) compareKey(a, b domain.Task) int {
	switch s.Field {
	case domain.SortByTitle:
		return strings.Compare(a.Title, b.Title)
	case domain.SortByPriority:
		return a.Priority.Rank() - b.Priority.Rank()
	default:
		if a.DueDate == nil || b.DueDate == nil {
			return 0
		}
		return a.DueDate.Compare(*b.DueDate)
	}
}

// OrderBy renders the ordering as a SQL ORDER BY list (without the keywords).
func (s Sort) OrderBy(d Dialect) string {
	dir := "ASC"
	if s.Order == domain.SortDesc {
		dir = "DESC"
	}

	var key string
	switch s.Field {
	case domain.SortByTitle:
		key = d.Binary("title") + " " + dir
	case domain.SortByPriority:
		key = priorityRankSQL() + " " + dir
	default:
		key = "due_date IS NULL, due_date " + dir
	}
	return key + ", id ASC"
}

// priorityRankSQL builds a CASE expression from the same rank table used by Compare.
func priorityRankSQL() string {
	var b strings.Builder
	b.WriteString("CASE priority")
	for _, p := range domain.Priorities {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", p, p.Rank())
	}
	b.WriteString(" ELSE 0 END")
	return b.String()
}
