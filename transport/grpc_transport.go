package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"dcf/codec"
	"dcf/message"
	"dcf/protocol"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// Defaults for GRPCConnector. DefaultConnectTimeout matches gRPC's own minimum
// connect timeout.
const (
	DefaultConnectTimeout = 20 * time.Second
	DefaultHeartbeat      = 30 * time.Second
	heartbeatTimeout      = 10 * time.Second
)

// GRPCConnector dials peers over gRPC with plaintext HTTP/2.
type GRPCConnector struct {
	Codec          string        // Content-subtype for SendMessage: codec.NameJSON or codec.NameBinary
	ConnectTimeout time.Duration // Upper bound on the handshake
	Heartbeat      time.Duration // Keepalive ping interval, replaces a hand-rolled heartbeat frame
	DialOptions    []grpc.DialOption
}

// NewGRPCConnector returns a connector using the named codec and default timeouts.
func NewGRPCConnector(codecName string) *GRPCConnector {
	return &GRPCConnector{
		Codec:          codecName,
		ConnectTimeout: DefaultConnectTimeout,
		Heartbeat:      DefaultHeartbeat,
	}
}

// Target formats the gRPC target for host:port.
func Target(host string, port uint16) string {
	return "dns:///" + net.JoinHostPort(host, strconv.Itoa(int(port)))
}

// Connect implements Connector.
func (c *GRPCConnector) Connect(ctx context.Context, host string, port uint16) (Conn, error) {
	conn, err := c.Dial(ctx, host, port)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Dial connects to host:port and waits until the channel is READY.
func (c *GRPCConnector) Dial(ctx context.Context, host string, port uint16) (*GRPCConn, error) {
	if host == "" {
		return nil, errors.New("transport: empty host")
	}
	codecName := c.Codec
	if codecName == "" {
		codecName = codec.NameJSON
	}
	if _, err := codec.Get(codecName); err != nil {
		return nil, err
	}

	// The recorder keeps the last dial failure so that "connection refused" or
	// "no route to host" survive gRPC's generic TRANSIENT_FAILURE state.
	rec := &dialRecorder{}
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(rec.dial),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                orDefault(c.Heartbeat, DefaultHeartbeat),
			Timeout:             heartbeatTimeout,
			PermitWithoutStream: true,
		}),
	}
	opts = append(opts, c.DialOptions...)

	target := Target(host, port)
	cc, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("transport: %s: %w", target, err)
	}

	ctx, cancel := context.WithTimeout(ctx, orDefault(c.ConnectTimeout, DefaultConnectTimeout))
	defer cancel()
	if err := waitReady(ctx, cc, rec); err != nil {
		cc.Close()
		return nil, fmt.Errorf("transport: connect %s: %w", target, err)
	}

	return &GRPCConn{cc: cc, target: target, codec: codecName}, nil
}

// waitReady drives cc out of IDLE and follows its state transitions until it is
// READY, fails, or ctx expires.
func waitReady(ctx context.Context, cc *grpc.ClientConn, rec *dialRecorder) error {
	cc.Connect()
	for {
		state := cc.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.TransientFailure, connectivity.Shutdown:
			if err := rec.last(); err != nil {
				return err
			}
			return fmt.Errorf("channel is %s", state)
		}
		if !cc.WaitForStateChange(ctx, state) {
			if err := rec.last(); err != nil {
				return fmt.Errorf("%w (last dial error: %v)", ctx.Err(), err)
			}
			return ctx.Err()
		}
	}
}

// GRPCConn is a READY gRPC channel to one peer. grpc.ClientConn is safe for
// concurrent use, so GRPCConn is too.
type GRPCConn struct {
	cc     *grpc.ClientConn
	target string
	codec  string
}

// Send implements Conn.
func (c *GRPCConn) Send(ctx context.Context, msg *message.Message) (*message.Message, error) {
	return protocol.Invoke(ctx, c.cc, msg, grpc.CallContentSubtype(c.codec))
}

// Health asks the peer's standard health service about service ("" means the
// whole server).
func (c *GRPCConn) Health(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(c.cc).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Target returns the dialed target, e.g. "dns:///127.0.0.1:50051".
func (c *GRPCConn) Target() string {
	return c.target
}

// State reports the current channel state.
func (c *GRPCConn) State() connectivity.State {
	return c.cc.GetState()
}

func (c *GRPCConn) Close() error {
	return c.cc.Close()
}

type dialRecorder struct {
	mu  sync.Mutex
	err error
}

func (r *dialRecorder) dial(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
	}
	return conn, err
}

func (r *dialRecorder) last() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
