// Package transport establishes the single outbound connection an endpoint owns.
//
// Connector performs the handshake to host:port and hands back a Conn. The gRPC
// implementation dials eagerly: Connect returns only once the channel is READY,
// or with the reason it could not get there.
//
//	caller ──Send(msg)──→ Conn ──SendMessage──→ peer
//	                        ↑ keepalive pings every Heartbeat
package transport

import (
	"context"

	"dcf/message"
)

// Conn is an established connection to one peer.
// Implementations must be safe for concurrent Send calls.
type Conn interface {
	// Send performs one request/response round trip.
	Send(ctx context.Context, msg *message.Message) (*message.Message, error)
	Close() error
}

// Connector establishes connections.
type Connector interface {
	Connect(ctx context.Context, host string, port uint16) (Conn, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, host string, port uint16) (Conn, error)

func (f ConnectorFunc) Connect(ctx context.Context, host string, port uint16) (Conn, error) {
	return f(ctx, host, port)
}
