package middleware

import (
	"context"

	"github.com/juju/errors"
	"golang.org/x/time/rate"
	"zabbix-rpc/message"
)

// ErrRateLimited is returned when a call is rejected before being sent.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitMiddleware 创建一个基于令牌桶算法的限流中间件
// Rejected calls never reach the server.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) (*message.Response, error) {
			if !limiter.Allow() {
				return nil, ErrRateLimited
			}
			return next(ctx, req)
		}
	}
}

// RateWaitMiddleware is the blocking variant: calls wait for a token instead of failing,
// unless ctx ends first.
func RateWaitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) (*message.Response, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, errors.Annotate(err, "waiting for rate limiter")
			}
			return next(ctx, req)
		}
	}
}
