package middleware

import (
	"context"

	"zabbix-rpc/message"
)

// HandlerFunc performs one call: it sends the envelope and returns the parsed reply.
// A non-nil error means no reply was parsed; otherwise the response must be non-nil.
type HandlerFunc func(ctx context.Context, req *message.Request) (*message.Response, error)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain 将多个中间件组合成一个中间件
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
