// Package loadbalance chooses which single peer an endpoint connects to when
// more than one candidate is known (a static peers list or an etcd discovery).
//
// Three strategies are implemented:
//   - RoundRobin:      successive choices cycle through the candidates
//   - WeightedRandom:  candidates with a larger Weight are chosen more often
//   - ConsistentHash:  the same key (a node id) always lands on the same peer
package loadbalance

import (
	"errors"
	"fmt"

	"dcf/registry"
)

var ErrNoInstances = errors.New("loadbalance: no instances available")

// Balancer picks one instance. key identifies the caller; strategies that do
// not need it ignore it. Must be goroutine-safe.
type Balancer interface {
	Pick(key string, instances []registry.Instance) (*registry.Instance, error)

	// Name returns the strategy name (for logging/config).
	Name() string
}

// New returns the balancer registered under name.
func New(name string) (Balancer, error) {
	switch name {
	case "", "round_robin":
		return &RoundRobinBalancer{}, nil
	case "weighted_random":
		return &WeightedRandomBalancer{}, nil
	case "consistent_hash":
		return NewConsistentHashBalancer(), nil
	}
	return nil, fmt.Errorf("loadbalance: unknown strategy %q", name)
}
