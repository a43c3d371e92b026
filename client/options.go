package client

import (
	"time"

	"go.uber.org/zap"
	"zabbix-rpc/codec"
	"zabbix-rpc/middleware"
	"zabbix-rpc/transport"
)

type options struct {
	codecType   codec.CodecType
	transport   transport.Transport
	timeout     time.Duration
	logger      *zap.Logger
	middlewares []middleware.Middleware
	onError     ErrorHandler
	strictLogin bool
}

func defaultOptions() options {
	return options{
		codecType: codec.CodecTypeJSON,
		timeout:   transport.DefaultTimeout,
		logger:    zap.NewNop(),
	}
}

// Option configures a Client.
type Option func(*options)

// WithTransport replaces the default HTTP transport.
func WithTransport(t transport.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithTimeout sets the round-trip timeout of the default HTTP transport.
// It has no effect together with WithTransport.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithCodec selects the JSON implementation used for envelopes and replies.
func WithCodec(t codec.CodecType) Option {
	return func(o *options) {
		o.codecType = t
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMiddleware appends middlewares around every round trip, login included.
// They run in the order given.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, mws...)
	}
}

// WithErrorHandler registers a callback for error replies swallowed by Invoke and Logout.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		o.onError = h
	}
}

// WithStrictLogin makes New fail with a *LoginError when the server rejects the login,
// instead of returning a degraded client.
func WithStrictLogin(strict bool) Option {
	return func(o *options) {
		o.strictLogin = strict
	}
}
