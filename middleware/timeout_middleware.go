package middleware

import (
	"context"
	"time"

	"zabbix-rpc/message"
)

// TimeOutMiddleware bounds each call with a deadline. The call runs on the caller's goroutine
// and the deadline reaches the transport through ctx, so a reply that was already parsed is
// never discarded by a late timeout.
func TimeOutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) (*message.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, req)
		}
	}
}
