package registry

// Instance is one advertised peer.
type Instance struct {
	Addr   string `json:"addr"` // Routable host:port
	NodeID string `json:"node_id,omitempty"`
	Role   string `json:"role,omitempty"`
	Weight int    `json:"weight,omitempty"` // Weight for load balancing
}

// Registry advertises and discovers peers of a service.
type Registry interface {
	Register(service string, instance Instance, ttl int64) error
	Deregister(service string, addr string) error
	Discover(service string) ([]Instance, error)
}
