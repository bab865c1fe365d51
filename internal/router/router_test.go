package router

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/tasks/api/handler"
	"github.com/fastygo/tasks/api/transport"
	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/internal/metrics"
	"github.com/fastygo/tasks/pkg/httpcontext"
	"github.com/fastygo/tasks/query"
	"github.com/fastygo/tasks/repository/memory"
	taskUC "github.com/fastygo/tasks/usecase/task"
)

func newTestHandler(t *testing.T, m *metrics.Metrics) fasthttp.RequestHandler {
	t.Helper()
	uc := taskUC.New(memory.NewTaskRepository(), query.CountGlobal, nil)
	adapter := httpcontext.NewAdapter(0)
	limits := domain.QueryLimits{DefaultLimit: 10, MaxLimit: 100}
	return New(Handlers{
		Task:   apiHandler.NewTaskHandler(uc, limits, adapter, nil),
		Health: apiHandler.NewHealthHandler(nil, adapter, nil),
	}, m, nil)
}

func do(h fasthttp.RequestHandler, method, uri, body string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBodyString(body)
	}
	h(&ctx)
	return &ctx
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(ctx.Response.Body(), out); err != nil {
		t.Fatalf("decode %q: %v", ctx.Response.Body(), err)
	}
}

func TestCreateKeepsSubmittedText(t *testing.T) {
	h := newTestHandler(t, nil)

	ctx := do(h, "POST", "/api/tasks", `{"title":"  Buy milk ","description":" two litres","category":"home "}`)
	var created domain.Task
	decode(t, ctx, &created)

	ctx = do(h, "GET", fmt.Sprintf("/api/tasks/%d", created.ID), "")
	var fetched domain.Task
	decode(t, ctx, &fetched)
	if fetched.Title != "  Buy milk " || fetched.Category != "home " ||
		fetched.Description == nil || *fetched.Description != " two litres" {
		t.Fatalf("fetched: %+v", fetched)
	}

	ctx = do(h, "POST", "/api/tasks", `{"title":"   "}`)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("blank title status %d", ctx.Response.StatusCode())
	}
}

func TestTaskLifecycle(t *testing.T) {
	h := newTestHandler(t, nil)

	ctx := do(h, "POST", "/api/tasks", `{"title":"Buy milk","due_date":"2024-06-01"}`)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("create status %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var created domain.Task
	decode(t, ctx, &created)
	if created.ID == 0 || created.Priority != domain.PriorityMedium || created.Category != "general" {
		t.Fatalf("created: %+v", created)
	}
	if created.DueDate == nil || created.DueDate.Format("2006-01-02") != "2024-06-01" {
		t.Fatalf("due date: %v", created.DueDate)
	}

	ctx = do(h, "PATCH", fmt.Sprintf("/api/tasks/%d/toggle", created.ID), "")
	var toggled domain.Task
	decode(t, ctx, &toggled)
	if !toggled.Completed || toggled.CompletedAt == nil {
		t.Fatalf("toggle: %+v", toggled)
	}

	ctx = do(h, "PATCH", fmt.Sprintf("/api/tasks/%d", created.ID), `{"priority":"high","due_date":null}`)
	var patched domain.Task
	decode(t, ctx, &patched)
	if patched.Priority != domain.PriorityHigh || patched.DueDate != nil {
		t.Fatalf("patch: %+v", patched)
	}

	ctx = do(h, "DELETE", fmt.Sprintf("/api/tasks/%d", created.ID), "")
	var deleted transport.DeleteResponse
	decode(t, ctx, &deleted)
	if ctx.Response.StatusCode() != fasthttp.StatusOK || !deleted.Success {
		t.Fatalf("delete: %d %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	ctx = do(h, "DELETE", fmt.Sprintf("/api/tasks/%d", created.ID), "")
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("second delete status %d", ctx.Response.StatusCode())
	}
	var envelope transport.ErrorEnvelope
	decode(t, ctx, &envelope)
	if envelope.Status != "error" || envelope.Code != "NOT_FOUND" {
		t.Fatalf("envelope: %+v", envelope)
	}
}

func TestListTasksValidation(t *testing.T) {
	h := newTestHandler(t, nil)

	tests := []struct {
		uri    string
		status int
	}{
		{"/api/tasks", fasthttp.StatusOK},
		{"/api/tasks?limit=-1", fasthttp.StatusBadRequest},
		{"/api/tasks?page=abc", fasthttp.StatusBadRequest},
		{"/api/tasks?sortBy=created_at", fasthttp.StatusBadRequest},
		{"/api/tasks?priority=urgent", fasthttp.StatusBadRequest},
		{"/api/tasks?completed=maybe&limit=500", fasthttp.StatusOK},
		{"/api/tasks/abc", fasthttp.StatusBadRequest},
		{"/api/tasks/12345", fasthttp.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			ctx := do(h, "GET", tt.uri, "")
			if ctx.Response.StatusCode() != tt.status {
				t.Fatalf("status %d, want %d: %s", ctx.Response.StatusCode(), tt.status, ctx.Response.Body())
			}
		})
	}
}

func TestListTasksPagination(t *testing.T) {
	h := newTestHandler(t, nil)
	for i := 1; i <= 11; i++ {
		do(h, "POST", "/api/tasks", fmt.Sprintf(`{"title":"Task %d","category":"work"}`, i))
	}

	ctx := do(h, "GET", "/api/tasks?limit=10&page=1&search=work", "")
	var page domain.Page
	decode(t, ctx, &page)
	if len(page.Data) != 10 || !page.Pagination.HasNextPage || page.Pagination.TotalItems != 11 {
		t.Fatalf("page 1: %d %+v", len(page.Data), page.Pagination)
	}
	if !strings.Contains(string(ctx.Response.Body()), `"hasNextPage":true`) {
		t.Fatalf("pagination must use camelCase keys: %s", ctx.Response.Body())
	}

	ctx = do(h, "GET", "/api/tasks?limit=10&page=2", "")
	decode(t, ctx, &page)
	if len(page.Data) != 1 || page.Pagination.HasNextPage || !page.Pagination.HasPreviousPage {
		t.Fatalf("page 2: %d %+v", len(page.Data), page.Pagination)
	}

	ctx = do(h, "GET", "/api/tasks/stats?category=work", "")
	var stats domain.Stats
	decode(t, ctx, &stats)
	if stats.Total != 11 || stats.Pending != 11 {
		t.Fatalf("stats: %+v", stats)
	}
}

func TestCORSAndHealth(t *testing.T) {
	h := newTestHandler(t, metrics.New())

	ctx := do(h, "OPTIONS", "/api/tasks", "")
	if ctx.Response.StatusCode() != fasthttp.StatusNoContent {
		t.Fatalf("preflight status %d", ctx.Response.StatusCode())
	}
	if got := string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")); got != "*" {
		t.Fatalf("allow origin %q", got)
	}

	ctx = do(h, "GET", "/", "")
	if string(ctx.Response.Body()) != "OK" {
		t.Fatalf("root body %q", ctx.Response.Body())
	}

	ctx = do(h, "GET", "/health", "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("health status %d", ctx.Response.StatusCode())
	}
	if len(ctx.Response.Header.Peek("X-Request-ID")) == 0 {
		t.Fatal("missing X-Request-ID on health response")
	}

	do(h, "GET", "/api/tasks", "")
	ctx = do(h, "GET", "/metrics", "")
	if !strings.Contains(string(ctx.Response.Body()), "tasks_http_requests_total") {
		t.Fatalf("metrics output missing request counter")
	}
}
