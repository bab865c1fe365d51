package client

import (
	"context"
	"sync"
	"time"

	"github.com/fastygo/tasks/domain"
)

const DefaultDebounce = time.Second

// Fetcher executes one remote query. *APIClient satisfies it.
type Fetcher interface {
	ListTasks(ctx context.Context, params domain.QueryParams) (domain.Page, error)
}

// State is a snapshot of what an interactive task list displays.
type State struct {
	// SearchTerm is the live input; Search is the committed term queries use.
	SearchTerm string
	Search     string
	Filters    domain.Filters
	SortBy     domain.SortField
	SortOrder  domain.SortOrder
	Page       int
	Limit      int

	Loading bool
	Result  domain.Page
	Err     error
	// Queries counts the queries started so far.
	Queries uint64
	// Revision increases with every change; later snapshots carry larger values.
	Revision uint64
}

// Params returns the query the state describes.
func (s State) Params() domain.QueryParams {
	filters := s.Filters
	filters.Search = s.Search
	return domain.QueryParams{
		Filters:   filters,
		SortBy:    s.SortBy,
		SortOrder: s.SortOrder,
		Page:      s.Page,
		Limit:     s.Limit,
	}
}

// Coordinator debounces search input and issues exactly one query per
// effective change of search, filters, sort or page. Only the response of
// the most recently started query is applied; older ones are cancelled and
// dropped when they arrive.
type Coordinator struct {
	fetcher  Fetcher
	debounce time.Duration
	onChange func(State)

	mu        sync.Mutex
	state     State
	timer     *time.Timer
	searchGen uint64
	seq       uint64
	cancel    context.CancelFunc
	closed    bool
	wg        sync.WaitGroup

	notifyMu  sync.Mutex
	delivered uint64
}

type CoordinatorOption func(*Coordinator)

func WithDebounce(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithOnChange registers a callback invoked with a snapshot after every state change.
// Calls are serialized and arrive in Revision order; a snapshot overtaken by a
// newer one is skipped.
func WithOnChange(fn func(State)) CoordinatorOption {
	return func(c *Coordinator) { c.onChange = fn }
}

func WithPageSize(limit int) CoordinatorOption {
	return func(c *Coordinator) {
		if limit > 0 {
			c.state.Limit = limit
		}
	}
}

func NewCoordinator(fetcher Fetcher, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		fetcher:  fetcher,
		debounce: DefaultDebounce,
		state: State{
			SortBy:    domain.SortByDueDate,
			SortOrder: domain.SortAsc,
			Page:      domain.DefaultPage,
			Limit:     domain.DefaultLimit,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Refresh issues a query for the current state unconditionally.
func (c *Coordinator) Refresh() {
	c.update(func(*State) bool { return true })
}

// Type records a keystroke. The committed search follows once no further
// keystroke arrives within the debounce window.
func (c *Coordinator) Type(term string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.SearchTerm = term
	c.state.Revision++
	if c.timer != nil {
		c.timer.Stop()
	}
	c.searchGen++
	gen := c.searchGen
	c.timer = time.AfterFunc(c.debounce, func() { c.commitSearch(gen) })
	snapshot := c.state
	c.mu.Unlock()

	c.notify(snapshot)
}

// Flush commits the pending search term immediately.
func (c *Coordinator) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.searchGen++
	gen := c.searchGen
	c.mu.Unlock()
	c.commitSearch(gen)
}

func (c *Coordinator) SetFilters(f domain.Filters) {
	f.Search = ""
	c.update(func(s *State) bool {
		if s.Filters == f {
			return false
		}
		s.Filters = f
		return true
	})
}

// SetSort changes the ordering. The page is kept.
func (c *Coordinator) SetSort(field domain.SortField, order domain.SortOrder) {
	c.update(func(s *State) bool {
		if s.SortBy == field && s.SortOrder == order {
			return false
		}
		s.SortBy = field
		s.SortOrder = order
		return true
	})
}

func (c *Coordinator) SetPage(page int) {
	if page <= 0 {
		page = domain.DefaultPage
	}
	c.update(func(s *State) bool {
		if s.Page == page {
			return false
		}
		s.Page = page
		return true
	})
}

// Close stops the debounce timer, cancels the in-flight query and waits for it.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// commitSearch commits the typed term unless a later keystroke or Flush
// has superseded the timer that scheduled it.
func (c *Coordinator) commitSearch(gen uint64) {
	c.update(func(s *State) bool {
		if gen != c.searchGen || s.Search == s.SearchTerm {
			return false
		}
		s.Search = s.SearchTerm
		return true
	})
}

// update applies change under the lock and starts a query when it reports a change.
func (c *Coordinator) update(change func(*State) bool) {
	c.mu.Lock()
	if c.closed || !change(&c.state) {
		c.mu.Unlock()
		return
	}
	snapshot := c.startLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}

func (c *Coordinator) startLocked() State {
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.seq++
	seq := c.seq
	params := c.state.Params()

	c.state.Loading = true
	c.state.Queries = seq
	c.state.Revision++

	c.wg.Add(1)
	go c.run(ctx, seq, params)
	return c.state
}

func (c *Coordinator) run(ctx context.Context, seq uint64, params domain.QueryParams) {
	defer c.wg.Done()
	page, err := c.fetcher.ListTasks(ctx, params)

	c.mu.Lock()
	if seq != c.seq || c.closed {
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state.Loading = false
	if err != nil {
		c.state.Err = err
	} else {
		c.state.Result = page
		c.state.Err = nil
	}
	c.state.Revision++
	snapshot := c.state
	c.mu.Unlock()

	c.notify(snapshot)
}

func (c *Coordinator) notify(s State) {
	if c.onChange == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if s.Revision <= c.delivered {
		return
	}
	c.delivered = s.Revision
	c.onChange(s)
}
