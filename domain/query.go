package domain

import (
	"strconv"
	"strings"
)

type SortField string

const (
	SortByTitle    SortField = "title"
	SortByPriority SortField = "priority"
	SortByDueDate  SortField = "due_date"
)

func (f SortField) Valid() bool {
	switch f {
	case SortByTitle, SortByPriority, SortByDueDate:
		return true
	}
	return false
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) Valid() bool {
	return o == SortAsc || o == SortDesc
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Filters holds the optional predicate inputs. Empty strings mean "not supplied".
type Filters struct {
	Priority  Priority
	Category  string
	Completed string // tri-state: "true", "false", anything else is ignored
	Search    string
}

// CompletedFilter interprets the tri-state completed parameter.
func (f Filters) CompletedFilter() (bool, bool) {
	switch f.Completed {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

// QueryParams is the transient per-request input of the task query engine.
type QueryParams struct {
	Filters
	SortBy    SortField
	SortOrder SortOrder
	Page      int
	Limit     int
}

// Normalize applies defaults for programmatic callers: page <= 0 becomes 1,
// limit <= 0 becomes DefaultLimit, unknown sort values fall back to due_date asc.
func (q QueryParams) Normalize() QueryParams {
	if q.Page <= 0 {
		q.Page = DefaultPage
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if !q.SortBy.Valid() {
		q.SortBy = SortByDueDate
	}
	if !q.SortOrder.Valid() {
		q.SortOrder = SortAsc
	}
	return q
}

// Offset returns the number of rows skipped before the requested page.
func (q QueryParams) Offset() int {
	return (q.Page - 1) * q.Limit
}

// QueryLimits configures ParseQueryParams.
type QueryLimits struct {
	DefaultLimit int
	MaxLimit     int
}

// ParseQueryParams reads raw request values through get and validates them.
// Missing values take defaults; malformed values yield an INVALID error.
func ParseQueryParams(get func(key string) string, limits QueryLimits) (QueryParams, error) {
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = DefaultLimit
	}
	if limits.MaxLimit <= 0 {
		limits.MaxLimit = MaxLimit
	}

	params := QueryParams{
		Filters: Filters{
			Category:  get("category"),
			Completed: get("completed"),
			Search:    get("search"),
		},
		SortBy:    SortByDueDate,
		SortOrder: SortAsc,
		Page:      DefaultPage,
		Limit:     limits.DefaultLimit,
	}

	if raw := get("priority"); raw != "" {
		p, err := ParsePriority(raw)
		if err != nil {
			return QueryParams{}, err
		}
		params.Priority = p
	}

	if raw := get("sortBy"); raw != "" {
		field := SortField(raw)
		if !field.Valid() {
			return QueryParams{}, Validationf("sortBy must be one of title, priority, due_date")
		}
		params.SortBy = field
	}

	if raw := strings.ToLower(get("sortOrder")); raw != "" {
		order := SortOrder(raw)
		if !order.Valid() {
			return QueryParams{}, Validationf("sortOrder must be asc or desc")
		}
		params.SortOrder = order
	}

	page, err := positiveInt(get("page"), DefaultPage, "page")
	if err != nil {
		return QueryParams{}, err
	}
	params.Page = page

	limit, err := positiveInt(get("limit"), limits.DefaultLimit, "limit")
	if err != nil {
		return QueryParams{}, err
	}
	if limit > limits.MaxLimit {
		limit = limits.MaxLimit
	}
	params.Limit = limit

	return params, nil
}

func positiveInt(raw string, fallback int, name string) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, Validationf("%s must be a positive integer", name)
	}
	if v <= 0 {
		return 0, Validationf("%s must be a positive integer", name)
	}
	return v, nil
}

// Pagination describes where a page sits in the result set.
type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalItems      int  `json:"totalItems"`
	ItemsPerPage    int  `json:"itemsPerPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// Page is the result of one query engine execution.
type Page struct {
	Data       []Task     `json:"data"`
	Pagination Pagination `json:"pagination"`
}
