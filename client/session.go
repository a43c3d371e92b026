package client

import (
	"context"

	"go.uber.org/zap"
)

// WithSession opens a session, runs fn with it and logs out on every exit path,
// including a panic in fn. fn's error takes precedence over a logout failure.
func WithSession(ctx context.Context, host, user, password string, fn func(ctx context.Context, c *Client) error, opts ...Option) (err error) {
	c, err := New(ctx, host, user, password, opts...)
	if err != nil {
		return err
	}
	return c.Scope(ctx, fn)
}

// Scope runs fn and logs out afterwards, the same way WithSession does, for a client
// that was built separately (e.g. through Dial).
func (c *Client) Scope(ctx context.Context, fn func(ctx context.Context, c *Client) error) (err error) {
	defer func() {
		// Logout must go out even if ctx was cancelled inside fn
		logoutErr := c.Logout(context.WithoutCancel(ctx))
		if logoutErr == nil {
			return
		}
		if err == nil {
			err = logoutErr
			return
		}
		c.logger.Warn("logout after failed session", zap.Error(logoutErr))
	}()
	return fn(ctx, c)
}
