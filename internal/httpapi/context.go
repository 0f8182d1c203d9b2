package httpapi

import (
	"context"
)

// serverBaseCtx is a process-level context cancelled on shutdown so
// long-lived handlers (awaits, event streams) unwind even after the
// listener stops accepting. Defaults to Background if not set.
var serverBaseCtx = context.Background()

// SetBaseContext installs the process-level base context. cmd/settingsd
// cancels it before the HTTP server's graceful shutdown begins.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts returns a context canceled when either a or b is done,
// letting a blocked await observe both client disconnect and server
// shutdown. The returned cancel func must be called when the handler
// ends to release the goroutine.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
			cancel()
		case <-b.Done():
			cancel()
		}
	}()
	return ctx, cancel
}
