package transport

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/fastygo/tasks/domain"
)

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// TaskCreateRequest is the body of POST /api/tasks.
type TaskCreateRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    string  `json:"priority"`
	Category    string  `json:"category"`
	DueDate     *string `json:"due_date"`
}

// ToDomain validates the raw fields and converts them. Text fields are kept as
// submitted; defaults are applied later.
func (r TaskCreateRequest) ToDomain() (domain.NewTask, error) {
	in := domain.NewTask{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
	}
	if r.Priority != "" {
		p, err := domain.ParsePriority(r.Priority)
		if err != nil {
			return domain.NewTask{}, err
		}
		in.Priority = p
	}
	if r.DueDate != nil && *r.DueDate != "" {
		due, err := ParseDueDate(*r.DueDate)
		if err != nil {
			return domain.NewTask{}, err
		}
		in.DueDate = &due
	}
	return in, nil
}

// TaskPatchRequest is the body of PATCH /api/tasks/{id}. A JSON null due_date clears it.
type TaskPatchRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Priority    *string         `json:"priority"`
	Category    *string         `json:"category"`
	Completed   *bool           `json:"completed"`
	DueDate     json.RawMessage `json:"due_date"`
}

func (r TaskPatchRequest) ToDomain() (domain.TaskPatch, error) {
	patch := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Completed:   r.Completed,
	}
	if r.Priority != nil {
		p, err := domain.ParsePriority(*r.Priority)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.Priority = &p
	}
	if len(r.DueDate) > 0 {
		if bytes.Equal(bytes.TrimSpace(r.DueDate), []byte("null")) {
			patch.ClearDue = true
			return patch, nil
		}
		var raw string
		if err := json.Unmarshal(r.DueDate, &raw); err != nil {
			return domain.TaskPatch{}, domain.Validationf("due_date must be a string or null")
		}
		if raw == "" {
			patch.ClearDue = true
			return patch, nil
		}
		due, err := ParseDueDate(raw)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.DueDate = &due
	}
	return patch, nil
}

// ParseDueDate accepts RFC 3339 timestamps and date-only values; zone-less values are UTC.
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, domain.Validationf("due_date %q is not a valid date", raw)
}
