// Package client talks to the task service over HTTP and coordinates
// interactive queries against it.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/tasks/api/transport"
	"github.com/fastygo/tasks/domain"
)

const defaultTimeout = 10 * time.Second

// APIClient is a typed client of the /api/tasks endpoints.
type APIClient struct {
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration
}

type Option func(*APIClient)

func WithTimeout(d time.Duration) Option {
	return func(c *APIClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDial replaces the connection dialer, e.g. with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *APIClient) { c.http.Dial = dial }
}

// New creates a client rooted at baseURL, e.g. "http://localhost:3000/api".
func New(baseURL string, opts ...Option) *APIClient {
	c := &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			Name:                "tasks-client",
			MaxIdleConnDuration: 30 * time.Second,
		},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTasks runs one query engine request.
func (c *APIClient) ListTasks(ctx context.Context, params domain.QueryParams) (domain.Page, error) {
	var page domain.Page
	err := c.do(ctx, "list tasks", fasthttp.MethodGet, "/tasks?"+EncodeQuery(params), nil, &page)
	return page, err
}

func (c *APIClient) Stats(ctx context.Context, filters domain.Filters) (domain.Stats, error) {
	var stats domain.Stats
	path := "/tasks/stats"
	if q := EncodeQuery(domain.QueryParams{Filters: filters}); q != "" {
		path += "?" + q
	}
	err := c.do(ctx, "task stats", fasthttp.MethodGet, path, nil, &stats)
	return stats, err
}

func (c *APIClient) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, "get task", fasthttp.MethodGet, taskPath(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *APIClient) CreateTask(ctx context.Context, req transport.TaskCreateRequest) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, "create task", fasthttp.MethodPost, "/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *APIClient) UpdateTask(ctx context.Context, id int64, req transport.TaskPatchRequest) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, "update task", fasthttp.MethodPatch, taskPath(id), req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *APIClient) ToggleTask(ctx context.Context, id int64) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, "toggle task", fasthttp.MethodPatch, taskPath(id)+"/toggle", nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *APIClient) DeleteTask(ctx context.Context, id int64) error {
	var resp transport.DeleteResponse
	if err := c.do(ctx, "delete task", fasthttp.MethodDelete, taskPath(id), nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &TransportError{Op: "delete task", Message: "service did not confirm deletion"}
	}
	return nil
}

func (c *APIClient) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(payload)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	err := c.http.DoDeadline(req, resp, deadline)
	// fasthttp has no context support; a cancelled caller wins over whatever came back.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		terr := &TransportError{Op: op, StatusCode: status}
		var envelope transport.ErrorEnvelope
		if json.Unmarshal(resp.Body(), &envelope) == nil {
			terr.Code = envelope.Code
			terr.Message = envelope.Error
		}
		return terr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &TransportError{Op: op, StatusCode: status, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var terr *TransportError
	return errors.As(err, &terr) && terr.StatusCode == fasthttp.StatusNotFound
}

// EncodeQuery renders the set parameters; zero values are omitted so the
// server defaults apply.
func EncodeQuery(params domain.QueryParams) string {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)

	set := func(key, value string) {
		if value != "" {
			args.Add(key, value)
		}
	}
	set("priority", string(params.Priority))
	set("category", params.Category)
	set("completed", params.Completed)
	set("search", params.Search)
	set("sortBy", string(params.SortBy))
	set("sortOrder", string(params.SortOrder))
	if params.Page > 0 {
		set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		set("limit", strconv.Itoa(params.Limit))
	}
	return args.String()
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}
