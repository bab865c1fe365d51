package transport

import "encoding/json"

// ErrorEnvelope is the body of every failed request.
type ErrorEnvelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code"`
	Error  string      `json:"error"`
	Meta   interface{} `json:"meta,omitempty"`
}

func NewError(code string, message string, meta interface{}) ErrorEnvelope {
	return ErrorEnvelope{
		Status: "error",
		Code:   code,
		Error:  message,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e ErrorEnvelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

type DeleteResponse struct {
	Success bool `json:"success"`
}

// HealthResponse reports the reachability of the task store and cache.
type HealthResponse struct {
	Status     string          `json:"status"`
	Timestamp  string          `json:"timestamp"`
	Components map[string]bool `json:"components"`
}
