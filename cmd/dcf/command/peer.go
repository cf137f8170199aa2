package command

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"dcf/config"
	"dcf/loadbalance"
	"dcf/registry"
	"dcf/transport"

	"go.uber.org/zap"
)

var errNoPeer = errors.New("no peer configured: set --host, peers or etcd_endpoints")

// resolvePeer decides which single peer this process talks to.
func resolvePeer(c *config.Config) (string, uint16, error) {
	if c.Host != "" {
		if c.Port < 1 || c.Port > 65535 {
			return "", 0, fmt.Errorf("peer port %d: must be between 1 and 65535", c.Port)
		}
		return c.Host, uint16(c.Port), nil
	}

	var reg registry.Registry
	switch {
	case len(c.EtcdEndpoints) > 0:
		etcd, err := registry.NewEtcdRegistry(c.EtcdEndpoints)
		if err != nil {
			return "", 0, err
		}
		defer etcd.Close()
		reg = etcd
	case len(c.Peers) > 0:
		reg = registry.NewStaticRegistry(c.Service, c.Peers)
	default:
		return "", 0, errNoPeer
	}

	instances, err := reg.Discover(c.Service)
	if err != nil {
		return "", 0, err
	}
	balancer, err := loadbalance.New(c.Balancer)
	if err != nil {
		return "", 0, err
	}
	inst, err := balancer.Pick(c.NodeID, instances)
	if err != nil {
		return "", 0, fmt.Errorf("pick peer for %s: %w", c.Service, err)
	}
	logger.Debug("picked peer",
		zap.String("addr", inst.Addr),
		zap.String("balancer", balancer.Name()),
		zap.Int("candidates", len(instances)),
	)
	return splitHostPort(inst.Addr)
}

func splitHostPort(addr string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("peer address %q: %w", addr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return "", 0, fmt.Errorf("peer address %q: invalid port", addr)
	}
	return host, uint16(port), nil
}

func newConnector(c *config.Config) *transport.GRPCConnector {
	connector := transport.NewGRPCConnector(c.Codec)
	connector.ConnectTimeout = c.ConnectTimeout
	return connector
}
