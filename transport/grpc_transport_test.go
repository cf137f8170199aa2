package transport_test

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"testing"
	"time"

	"dcf/codec"
	"dcf/endpoint"
	"dcf/message"
	"dcf/server"
	"dcf/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/connectivity"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func listen(t *testing.T) (net.Listener, uint16) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, _ := net.SplitHostPort(lis.Addr().String())
	port, err := strconv.ParseUint(portStr, 10, 16)
	require.NoError(t, err)
	return lis, uint16(port)
}

func TestTarget(t *testing.T) {
	assert.Equal(t, "dns:///127.0.0.1:50051", transport.Target("127.0.0.1", 50051))
	assert.Equal(t, "dns:///[::1]:8080", transport.Target("::1", 8080))
}

func TestDialServing(t *testing.T) {
	lis, port := listen(t)
	svr := server.NewServer(endpoint.Echo{})
	go svr.Serve(lis)
	defer svr.Shutdown(time.Second)

	conn, err := transport.NewGRPCConnector(codec.NameJSON).Dial(context.Background(), "127.0.0.1", port)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, connectivity.Ready, conn.State())
	assert.Equal(t, transport.Target("127.0.0.1", port), conn.Target())

	reply, err := conn.Send(context.Background(), message.New("serial"))
	require.NoError(t, err)
	assert.Equal(t, "Echo: serial", reply.Data)

	status, err := conn.Health(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status)
}

func TestDialRefusedKeepsCause(t *testing.T) {
	lis, port := listen(t)
	require.NoError(t, lis.Close())

	_, err := transport.NewGRPCConnector("").Dial(context.Background(), "127.0.0.1", port)
	require.Error(t, err)
	assert.True(t, errors.Is(err, syscall.ECONNREFUSED), "got %v", err)
}

func TestDialTimeout(t *testing.T) {
	// A listener that never completes the HTTP/2 handshake keeps the channel
	// CONNECTING until the connect timeout fires.
	lis, port := listen(t)
	defer lis.Close()

	connector := transport.NewGRPCConnector(codec.NameJSON)
	connector.ConnectTimeout = 200 * time.Millisecond

	start := time.Now()
	_, err := connector.Dial(context.Background(), "127.0.0.1", port)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDialValidation(t *testing.T) {
	_, err := transport.NewGRPCConnector("").Dial(context.Background(), "", 1)
	assert.Error(t, err)

	_, err = transport.NewGRPCConnector("xml").Dial(context.Background(), "127.0.0.1", 1)
	assert.Error(t, err)
}

func TestConnectorFunc(t *testing.T) {
	want := errors.New("nope")
	var c transport.Connector = transport.ConnectorFunc(func(context.Context, string, uint16) (transport.Conn, error) {
		return nil, want
	})
	_, err := c.Connect(context.Background(), "h", 1)
	assert.Equal(t, want, err)
}
