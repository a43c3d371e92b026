package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"
	"strings"
	"sync"

	"zabbix-rpc/registry"
)

// ConsistentHashBalancer maps keys to endpoints using a hash ring, so the same user
// keeps landing on the same frontend until the endpoint set changes.
//
// Each endpoint is placed on the ring as 100 virtual nodes to keep the spread even.
//
//	Hash Ring:
//	                  0
//	                ╱   ╲
//	         B ●               ● A
//	           │    key ◆──►   │   (clockwise to nearest node → A)
//	         C ●               ● A' (virtual node of A)
//	                ╲   ╱
type ConsistentHashBalancer struct {
	mu       sync.Mutex
	replicas int                            // Virtual nodes per endpoint
	ring     []uint32                       // Sorted hash values on the ring
	nodes    map[uint32]*registry.Endpoint // Hash value → endpoint mapping
	members  string                         // Fingerprint of the endpoint set the ring was built from
}

// NewConsistentHashBalancer creates a hash ring with 100 virtual nodes per endpoint.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{
		replicas: 100,
		ring:     []uint32{},
		nodes:    make(map[uint32]*registry.Endpoint),
	}
}

// Add places an endpoint onto the ring.
func (b *ConsistentHashBalancer) Add(endpoint *registry.Endpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.add(endpoint)
}

func (b *ConsistentHashBalancer) add(endpoint *registry.Endpoint) {
	for i := 0; i < b.replicas; i++ {
		hash := crc32.ChecksumIEEE([]byte(fmt.Sprintf("%s#%d", endpoint.Host, i)))
		b.ring = append(b.ring, hash)
		b.nodes[hash] = endpoint
	}
	sort.Slice(b.ring, func(i, j int) bool {
		return b.ring[i] < b.ring[j]
	})
}

// Locate finds the endpoint responsible for key on the current ring.
func (b *ConsistentHashBalancer) Locate(key string) (*registry.Endpoint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locate(key)
}

func (b *ConsistentHashBalancer) locate(key string) (*registry.Endpoint, error) {
	if len(b.ring) == 0 {
		return nil, ErrNoEndpoints
	}
	hash := crc32.ChecksumIEEE([]byte(key))

	// First node with hash >= key's hash, wrapping around to the first node
	idx := sort.Search(len(b.ring), func(i int) bool {
		return b.ring[i] >= hash
	})
	if idx == len(b.ring) {
		idx = 0
	}

	return b.nodes[b.ring[idx]], nil
}

// Pick rebuilds the ring when the endpoint set differs from the last one seen,
// then locates key on it.
func (b *ConsistentHashBalancer) Pick(endpoints []registry.Endpoint, key string) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if members := fingerprint(endpoints); members != b.members {
		b.ring = b.ring[:0]
		b.nodes = make(map[uint32]*registry.Endpoint, len(endpoints)*b.replicas)
		for i := range endpoints {
			endpoint := endpoints[i]
			b.add(&endpoint)
		}
		b.members = members
	}
	return b.locate(key)
}

func fingerprint(endpoints []registry.Endpoint) string {
	hosts := make([]string, len(endpoints))
	for i, e := range endpoints {
		hosts[i] = e.Host
	}
	sort.Strings(hosts)
	return strings.Join(hosts, "\x00")
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}
