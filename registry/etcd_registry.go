// Package registry provides the etcd-based implementation of the Registry interface.
//
// Frontends of a monitoring cluster are published in etcd so that clients can find one
// without a hard-coded host:
//
//	Key:   /zabbix-rpc/{cluster}/{host}
//	Value: JSON-encoded Endpoint
//
// Registration uses TTL-based leases: a frontend that stops renewing disappears on its own.
package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/juju/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

const keyPrefix = "/zabbix-rpc/"

// EtcdRegistry implements the Registry interface using etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client // etcd client connection (thread-safe, shared across goroutines)
	logger *zap.Logger
}

// NewEtcdRegistry creates a new registry connected to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string, dialTimeout time.Duration, logger *zap.Logger) (*EtcdRegistry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
		Logger:      logger.Named("etcd"),
	})
	if err != nil {
		return nil, errors.Annotate(err, "connecting to etcd")
	}
	return &EtcdRegistry{client: c, logger: logger}, nil
}

func clusterPrefix(cluster string) string {
	return keyPrefix + cluster + "/"
}

// Register publishes an endpoint with a TTL lease and keeps the lease alive.
//
// leaseID stays a local variable so one EtcdRegistry can register several endpoints.
func (r *EtcdRegistry) Register(cluster string, endpoint Endpoint, ttl int64) error {
	ctx := context.TODO()

	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return errors.Annotate(err, "granting lease")
	}

	val, err := json.Marshal(endpoint)
	if err != nil {
		return errors.Trace(err)
	}

	_, err = r.client.Put(ctx, clusterPrefix(cluster)+endpoint.Host, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return errors.Annotatef(err, "registering %s", endpoint.Host)
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return errors.Annotate(err, "keeping lease alive")
	}

	// Consume KeepAlive responses to prevent the channel from filling up
	go func() {
		for range ch {
		}
	}()
	return nil
}

// Deregister removes an endpoint.
func (r *EtcdRegistry) Deregister(cluster string, host string) error {
	ctx := context.TODO()
	_, err := r.client.Delete(ctx, clusterPrefix(cluster)+host)
	if err != nil {
		return errors.Annotatef(err, "deregistering %s", host)
	}
	return nil
}

// Watch emits the full endpoint list whenever the cluster prefix changes.
func (r *EtcdRegistry) Watch(cluster string) <-chan []Endpoint {
	ctx := context.TODO()
	ch := make(chan []Endpoint, 1)

	go func() {
		defer close(ch)
		watchChan := r.client.Watch(ctx, clusterPrefix(cluster), clientv3.WithPrefix())
		for range watchChan {
			// Re-fetch instead of applying individual events
			endpoints, err := r.Discover(cluster)
			if err != nil {
				r.logger.Warn("refreshing endpoints failed", zap.String("cluster", cluster), zap.Error(err))
				continue
			}
			ch <- endpoints
		}
	}()

	return ch
}

// Discover returns all currently registered endpoints of a cluster.
func (r *EtcdRegistry) Discover(cluster string) ([]Endpoint, error) {
	ctx := context.TODO()

	resp, err := r.client.Get(ctx, clusterPrefix(cluster), clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Annotatef(err, "discovering cluster %q", cluster)
	}

	endpoints := make([]Endpoint, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var endpoint Endpoint
		if err := json.Unmarshal(kv.Value, &endpoint); err != nil {
			r.logger.Warn("skipping malformed endpoint", zap.ByteString("key", kv.Key), zap.Error(err))
			continue
		}
		endpoints = append(endpoints, endpoint)
	}

	return endpoints, nil
}

// Close releases the etcd connection.
func (r *EtcdRegistry) Close() error {
	return r.client.Close()
}
