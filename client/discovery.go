package client

import (
	"context"

	"github.com/juju/errors"
	"go.uber.org/zap"
	"zabbix-rpc/config"
	"zabbix-rpc/loadbalance"
	"zabbix-rpc/middleware"
	"zabbix-rpc/registry"
)

// Dial finds the frontends of cluster in reg, lets bal pick one for user and opens a
// session there. The user name is the balancing key, so a consistent-hash balancer keeps
// a user on the same frontend.
func Dial(ctx context.Context, reg registry.Registry, bal loadbalance.Balancer, cluster, user, password string, opts ...Option) (*Client, error) {
	endpoints, err := reg.Discover(cluster)
	if err != nil {
		return nil, errors.Annotatef(err, "discovering frontends of %q", cluster)
	}

	endpoint, err := bal.Pick(endpoints, user)
	if err != nil {
		return nil, errors.Annotatef(err, "picking a frontend of %q", cluster)
	}

	return New(ctx, endpoint.Host, user, password, opts...)
}

// NewFromConfig builds a client from a validated config. When discovery is configured the
// host comes from etcd; the registry connection is closed once the session is open.
// Extra options are applied after the ones derived from cfg.
func NewFromConfig(ctx context.Context, cfg config.Config, logger *zap.Logger, extra ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(OptionsFromConfig(cfg, logger), extra...)

	if !cfg.Discovery.Enabled() {
		return New(ctx, cfg.Host, cfg.User, cfg.Password, opts...)
	}

	bal, err := loadbalance.New(cfg.Discovery.Balancer)
	if err != nil {
		return nil, errors.Trace(err)
	}
	reg, err := registry.NewEtcdRegistry(cfg.Discovery.EtcdEndpoints, cfg.DialTimeout(), logger)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer reg.Close()

	return Dial(ctx, reg, bal, cfg.Discovery.Cluster, cfg.User, cfg.Password, opts...)
}

// OptionsFromConfig translates cfg into client options.
func OptionsFromConfig(cfg config.Config, logger *zap.Logger) []Option {
	opts := []Option{
		WithLogger(logger),
		WithCodec(cfg.CodecType()),
		WithStrictLogin(cfg.StrictLogin),
	}
	if d := cfg.TransportTimeout(); d > 0 {
		opts = append(opts, WithTimeout(d))
	}

	mws := []middleware.Middleware{middleware.LoggingMiddleware(logger)}
	if cfg.RateLimit.RPS > 0 {
		if cfg.RateLimit.Wait {
			mws = append(mws, middleware.RateWaitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		} else {
			mws = append(mws, middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}
	if d := cfg.CallTimeoutDuration(); d > 0 {
		mws = append(mws, middleware.TimeOutMiddleware(d))
	}
	return append(opts, WithMiddleware(mws...))
}
