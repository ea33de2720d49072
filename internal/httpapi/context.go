package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// serverBaseCtx is a process-level context that can be canceled on shutdown.
// Defaults to Background if not set.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// errShuttingDown is the cancellation cause of operations cut short by
// the server base context.
var errShuttingDown = errors.New("httpapi: server shutting down")

// operationContext derives the context for a scheduler operation from the
// request. It is also canceled when the server base context ends, and gets
// a deadline when timeout is positive.
func operationContext(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(r.Context())
	stop := context.AfterFunc(serverBaseCtx, func() { cancel(errShuttingDown) })
	release := func() {
		stop()
		cancel(nil)
	}
	if timeout <= 0 {
		return ctx, release
	}
	tctx, tcancel := context.WithTimeout(ctx, timeout)
	return tctx, func() { tcancel(); release() }
}

// aborted reports whether the client or the server went away.
func aborted(r *http.Request) bool {
	return r.Context().Err() != nil || serverBaseCtx.Err() != nil
}
