// Package loadbalance picks the API frontend a new session is opened against.
//
// Three strategies are implemented:
//   - RoundRobin:      spread sessions evenly over equal frontends
//   - WeightedRandom:  frontends of different capacity
//   - ConsistentHash:  keep a user on the same frontend (key = user name)
package loadbalance

import (
	"github.com/juju/errors"
	"zabbix-rpc/registry"
)

// ErrNoEndpoints is returned when there is nothing to pick from.
var ErrNoEndpoints = errors.New("no endpoints available")

// Balancer is the interface for load balancing strategies.
type Balancer interface {
	// Pick selects one endpoint. key identifies the caller (the user name);
	// strategies without affinity ignore it. Must be goroutine-safe.
	Pick(endpoints []registry.Endpoint, key string) (*registry.Endpoint, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}

// New returns the balancer registered under name. The empty name selects round robin.
func New(name string) (Balancer, error) {
	switch name {
	case "", "round_robin", "RoundRobin":
		return &RoundRobinBalancer{}, nil
	case "weighted_random", "WeightedRandom":
		return &WeightedRandomBalancer{}, nil
	case "consistent_hash", "ConsistentHash":
		return NewConsistentHashBalancer(), nil
	default:
		return nil, errors.NotValidf("balancer %q", name)
	}
}
