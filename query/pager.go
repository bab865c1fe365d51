package query

import "github.com/fastygo/tasks/domain"

// Pager computes the window of one page and derives its metadata.
type Pager struct {
	Page  int
	Limit int
}

// NewPager applies the fallback rule: page <= 0 becomes 1, limit <= 0 becomes the default.
func NewPager(page, limit int) Pager {
	if page <= 0 {
		page = domain.DefaultPage
	}
	if limit <= 0 {
		limit = domain.DefaultLimit
	}
	return Pager{Page: page, Limit: limit}
}

func (p Pager) Offset() int {
	return (p.Page - 1) * p.Limit
}

// FetchSize over-fetches one row so the presence of a next page can be
// detected without another query.
func (p Pager) FetchSize() int {
	return p.Limit + 1
}

// Paginate trims an over-fetched row set to the page size and attaches metadata.
func (p Pager) Paginate(rows []domain.Task, totalItems int) domain.Page {
	hasNext := len(rows) > p.Limit
	if hasNext {
		rows = rows[:p.Limit]
	}
	data := make([]domain.Task, len(rows))
	copy(data, rows)

	return domain.Page{
		Data: data,
		Pagination: domain.Pagination{
			CurrentPage:     p.Page,
			TotalPages:      TotalPages(totalItems, p.Limit),
			TotalItems:      totalItems,
			ItemsPerPage:    p.Limit,
			HasNextPage:     hasNext,
			HasPreviousPage: p.Page > 1,
		},
	}
}

// TotalPages is ceil(totalItems / limit).
func TotalPages(totalItems, limit int) int {
	if limit <= 0 || totalItems <= 0 {
		return 0
	}
	return (totalItems + limit - 1) / limit
}
