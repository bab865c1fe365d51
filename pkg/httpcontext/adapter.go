// Package httpcontext bridges fasthttp request contexts to context.Context.
package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/tasks/pkg/logger"
)

const HeaderRequestID = "X-Request-ID"

// Adapter derives a bounded context.Context for each request.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach returns a context carrying the request ID and the adapter deadline.
// The request ID is echoed back in the response header.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := RequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set(HeaderRequestID, reqID)

	return stdCtx, cancel
}

// RequestID returns the caller-supplied request ID or generates one. The
// generated value is stored on ctx so middleware and handlers agree on it.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if v, ok := ctx.UserValue(HeaderRequestID).(string); ok && v != "" {
		return v
	}
	reqID := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderRequestID)))
	if reqID == "" {
		reqID = uuid.NewString()
	}
	ctx.SetUserValue(HeaderRequestID, reqID)
	return reqID
}
