package registry

import "sync"

// MemoryRegistry keeps instances in process memory. It backs the static "peers"
// list from the config file and stands in for etcd in tests.
type MemoryRegistry struct {
	mu        sync.RWMutex
	instances map[string][]Instance
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{instances: make(map[string][]Instance)}
}

// NewStaticRegistry returns a MemoryRegistry holding one instance per address.
func NewStaticRegistry(service string, addrs []string) *MemoryRegistry {
	m := NewMemoryRegistry()
	for _, addr := range addrs {
		m.Register(service, Instance{Addr: addr, Weight: 1}, 0)
	}
	return m
}

// Register adds or replaces the instance with the same address. ttl is ignored.
func (m *MemoryRegistry) Register(service string, inst Instance, ttl int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	insts := m.instances[service]
	for i := range insts {
		if insts[i].Addr == inst.Addr {
			insts[i] = inst
			return nil
		}
	}
	m.instances[service] = append(insts, inst)
	return nil
}

func (m *MemoryRegistry) Deregister(service string, addr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	insts := m.instances[service]
	for i, inst := range insts {
		if inst.Addr == addr {
			m.instances[service] = append(insts[:i:i], insts[i+1:]...)
			break
		}
	}
	return nil
}

// Discover returns a copy of the registered instances.
func (m *MemoryRegistry) Discover(service string) ([]Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Instance(nil), m.instances[service]...), nil
}
