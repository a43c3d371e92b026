package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"
	"zabbix-rpc/message"
)

// LoggingMiddleware logs every call with its duration. Params and the session token are
// never logged since login params carry the password.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) (*message.Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.Int("id", req.ID),
				zap.Duration("duration", time.Since(start)),
			}
			switch {
			case err != nil:
				logger.Debug("call failed", append(fields, zap.Error(err))...)
			case resp.Failed():
				logger.Debug("call returned error reply", append(fields, zap.Int("code", resp.Error.Code), zap.String("message", resp.Error.Message))...)
			default:
				logger.Debug("call completed", fields...)
			}
			return resp, err
		}
	}
}
