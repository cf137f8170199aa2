// Package registry lets a serving process advertise itself and lets a client
// process find the single peer it should connect to.
//
// The etcd layout is:
//
//	Key:   /dcf/{service}/{addr}
//	Value: JSON-encoded Instance
//
// Registration uses TTL-based leases: if the server crashes, the lease expires
// and the entry is removed.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	keyPrefix      = "/dcf/"
	defaultTimeout = 5 * time.Second
)

// EtcdRegistry implements Registry using etcd v3.
type EtcdRegistry struct {
	client  *clientv3.Client // thread-safe, shared across goroutines
	timeout time.Duration    // per-request deadline

	mu     sync.Mutex
	leases map[string]clientv3.LeaseID // key → lease kept alive for it
}

// NewEtcdRegistry creates a registry connected to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: defaultTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("registry: connect etcd: %w", err)
	}
	return &EtcdRegistry{
		client:  c,
		timeout: defaultTimeout,
		leases:  make(map[string]clientv3.LeaseID),
	}, nil
}

func serviceKey(service string) string {
	return keyPrefix + service + "/"
}

// Register puts the instance under a lease of ttl seconds and keeps the lease
// alive until Deregister or Close. Registering the same address again replaces
// the previous lease.
func (r *EtcdRegistry) Register(service string, instance Instance, ttl int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	key := serviceKey(service) + instance.Addr
	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return fmt.Errorf("registry: grant lease: %w", err)
	}

	val, err := json.Marshal(instance)
	if err != nil {
		r.client.Revoke(ctx, lease.ID)
		return err
	}

	_, err = r.client.Put(ctx, key, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		r.client.Revoke(ctx, lease.ID)
		return fmt.Errorf("registry: put %s: %w", instance.Addr, err)
	}

	// KeepAlive outlives this call, so it gets the client's context. The
	// channel closes once the lease is revoked.
	ch, err := r.client.KeepAlive(r.client.Ctx(), lease.ID)
	if err != nil {
		r.client.Revoke(ctx, lease.ID)
		return fmt.Errorf("registry: keepalive: %w", err)
	}

	// Drain responses so the channel never fills up.
	go func() {
		for range ch {
		}
	}()

	if old, ok := r.swapLease(key, lease.ID, true); ok {
		r.client.Revoke(ctx, old)
	}
	return nil
}

// Deregister removes an instance and revokes its lease, which also stops the
// keepalive. Called during graceful shutdown before the listener closes.
func (r *EtcdRegistry) Deregister(service string, addr string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	key := serviceKey(service) + addr
	if id, ok := r.swapLease(key, 0, false); ok {
		if _, err := r.client.Revoke(ctx, id); err != nil {
			return fmt.Errorf("registry: revoke lease for %s: %w", addr, err)
		}
	}
	// Also covers entries another process registered.
	if _, err := r.client.Delete(ctx, key); err != nil {
		return fmt.Errorf("registry: delete %s: %w", addr, err)
	}
	return nil
}

// swapLease stores id under key (or removes the entry when store is false) and
// returns the lease previously held for key.
func (r *EtcdRegistry) swapLease(key string, id clientv3.LeaseID, store bool) (clientv3.LeaseID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.leases[key]
	if store {
		r.leases[key] = id
	} else {
		delete(r.leases, key)
	}
	return old, ok
}

func (r *EtcdRegistry) leaseCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.leases)
}

// Discover returns all currently registered instances of a service.
func (r *EtcdRegistry) Discover(service string) ([]Instance, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	resp, err := r.client.Get(ctx, serviceKey(service), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("registry: discover %s: %w", service, err)
	}

	instances := make([]Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var instance Instance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			continue // Skip malformed entries
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// Close stops every keepalive and closes the etcd client.
func (r *EtcdRegistry) Close() error {
	return r.client.Close()
}
