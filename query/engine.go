package query

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/fastygo/tasks/domain"
)

// RowSource is the storage capability the engine reads from.
type RowSource interface {
	Find(ctx context.Context, p Predicate, s Sort, limit, offset int) ([]domain.Task, error)
	// Count returns the number of tasks matching p; the empty predicate counts every task.
	Count(ctx context.Context, p Predicate) (int, error)
}

// CountScope selects what totalItems counts.
type CountScope string

const (
	// CountGlobal counts every task regardless of filters.
	CountGlobal CountScope = "global"
	// CountFiltered counts only the tasks matching the current filters.
	CountFiltered CountScope = "filtered"
)

func ParseCountScope(raw string) (CountScope, error) {
	switch CountScope(raw) {
	case "", CountGlobal:
		return CountGlobal, nil
	case CountFiltered:
		return CountFiltered, nil
	}
	return "", fmt.Errorf("unknown count scope %q", raw)
}

// Engine executes task queries. It holds no per-query state and is safe for concurrent use.
type Engine struct {
	rows  RowSource
	scope CountScope
}

func NewEngine(rows RowSource, scope CountScope) *Engine {
	if scope == "" {
		scope = CountGlobal
	}
	return &Engine{rows: rows, scope: scope}
}

func (e *Engine) Scope() CountScope {
	return e.scope
}

// Execute runs one query: the paged read and the count read run concurrently
// and independently, then the pager trims the over-fetched row.
func (e *Engine) Execute(ctx context.Context, params domain.QueryParams) (domain.Page, error) {
	params = params.Normalize()

	predicate := BuildPredicate(params.Filters)
	order := ResolveSort(params.SortBy, params.SortOrder)
	pager := NewPager(params.Page, params.Limit)

	countPredicate := Predicate{}
	if e.scope == CountFiltered {
		countPredicate = predicate
	}

	var (
		rows  []domain.Task
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = e.rows.Find(gctx, predicate, order, pager.FetchSize(), pager.Offset())
		if err != nil {
			return fmt.Errorf("find tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = e.rows.Count(gctx, countPredicate)
		if err != nil {
			return fmt.Errorf("count tasks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Page{}, err
	}

	return pager.Paginate(rows, total), nil
}
