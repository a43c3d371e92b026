package registry

// Endpoint is one API frontend serving api_jsonrpc.php.
type Endpoint struct {
	Host    string `json:"host"`   // Base URL, e.g. "https://zbx-fe1.example.com/"
	Weight  int    `json:"weight"` // Weight for load balancing
	Version string `json:"version,omitempty"`
}

// Registry keeps track of the API frontends of a monitoring cluster.
type Registry interface {
	Register(cluster string, endpoint Endpoint, ttl int64) error
	Deregister(cluster string, host string) error
	Discover(cluster string) ([]Endpoint, error)
	Watch(cluster string) <-chan []Endpoint
}
