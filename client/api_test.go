package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	apiHandler "github.com/fastygo/tasks/api/handler"
	"github.com/fastygo/tasks/api/transport"
	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/internal/router"
	"github.com/fastygo/tasks/pkg/httpcontext"
	"github.com/fastygo/tasks/query"
	"github.com/fastygo/tasks/repository/memory"
	taskUC "github.com/fastygo/tasks/usecase/task"
)

func startServer(t *testing.T) *APIClient {
	t.Helper()
	uc := taskUC.New(memory.NewTaskRepository(), query.CountGlobal, nil)
	adapter := httpcontext.NewAdapter(time.Second)
	handler := router.New(router.Handlers{
		Task:   apiHandler.NewTaskHandler(uc, domain.QueryLimits{}, adapter, nil),
		Health: apiHandler.NewHealthHandler(nil, adapter, nil),
	}, nil, nil)

	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: handler}
	go server.Serve(ln) //nolint:errcheck
	t.Cleanup(func() {
		_ = server.Shutdown()
		_ = ln.Close()
	})

	return New("http://tasks.test/api",
		WithTimeout(2*time.Second),
		WithDial(func(string) (net.Conn, error) { return ln.Dial() }),
	)
}

func TestAPIClientRoundTrip(t *testing.T) {
	api := startServer(t)
	ctx := context.Background()

	desc := "weekly"
	created, err := api.CreateTask(ctx, transport.TaskCreateRequest{Title: "Report", Description: &desc, Priority: "high", Category: "work"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || created.Priority != domain.PriorityHigh {
		t.Fatalf("created: %+v", created)
	}

	page, err := api.ListTasks(ctx, domain.QueryParams{Filters: domain.Filters{Search: "week"}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].ID != created.ID {
		t.Fatalf("list: %+v", page)
	}

	toggled, err := api.ToggleTask(ctx, created.ID)
	if err != nil || !toggled.Completed {
		t.Fatalf("toggle: %+v %v", toggled, err)
	}

	stats, err := api.Stats(ctx, domain.Filters{})
	if err != nil || stats.Completed != 1 {
		t.Fatalf("stats: %+v %v", stats, err)
	}

	if err := api.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := api.GetTask(ctx, created.ID); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAPIClientSurfacesTransportErrors(t *testing.T) {
	api := startServer(t)

	_, err := api.ListTasks(context.Background(), domain.QueryParams{SortBy: "bogus"})
	terr, ok := err.(*TransportError)
	if !ok {
		t.Fatalf("expected *TransportError, got %T %v", err, err)
	}
	if terr.StatusCode != fasthttp.StatusBadRequest || terr.Code != "INVALID" {
		t.Fatalf("transport error: %+v", terr)
	}

	unreachable := New("http://tasks.test/api",
		WithTimeout(200*time.Millisecond),
		WithDial(func(string) (net.Conn, error) { return nil, &net.OpError{Op: "dial", Err: net.UnknownNetworkError("none")} }),
	)
	_, err = unreachable.ListTasks(context.Background(), domain.QueryParams{})
	if terr, ok := err.(*TransportError); !ok || terr.StatusCode != 0 {
		t.Fatalf("expected network TransportError, got %v", err)
	}
}

func TestEncodeQuery(t *testing.T) {
	got := EncodeQuery(domain.QueryParams{
		Filters: domain.Filters{Priority: domain.PriorityLow, Search: "a b"},
		SortBy:  domain.SortByTitle,
		Page:    2,
	})
	want := "priority=low&search=a+b&sortBy=title&page=2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if EncodeQuery(domain.QueryParams{}) != "" {
		t.Fatal("zero params must encode to the empty string")
	}
}
