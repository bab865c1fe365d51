package domain

// Priority is an ordered enumeration. Compare with Rank, never with the string value.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority in rank order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Rank returns 1 for low, 2 for medium, 3 for high and 0 for anything else.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// ParsePriority validates a raw priority value.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(raw)
	if !p.Valid() {
		return "", NewError(ErrCodeInvalid, "priority must be one of low, medium, high")
	}
	return p, nil
}
