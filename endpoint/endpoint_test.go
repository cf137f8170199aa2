package endpoint

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"dcf/message"
	"dcf/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// fakeConn records calls and replies with reply or err.
type fakeConn struct {
	sends  atomic.Int32
	closed atomic.Bool
	reply  func(*message.Message) *message.Message
	err    error
}

func (c *fakeConn) Send(_ context.Context, msg *message.Message) (*message.Message, error) {
	c.sends.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.reply(msg), nil
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

func connectTo(conn transport.Conn, err error) (transport.Connector, *atomic.Int32) {
	calls := new(atomic.Int32)
	return transport.ConnectorFunc(func(context.Context, string, uint16) (transport.Conn, error) {
		calls.Add(1)
		return conn, err
	}), calls
}

func TestNewConnectFailureIsSwallowed(t *testing.T) {
	refused := errors.New("connection refused")
	connector, calls := connectTo(nil, refused)

	e := New(context.Background(), connector, "10.0.0.1", 50051, RoleClient)

	require.NotNil(t, e)
	assert.EqualValues(t, 1, calls.Load())
	assert.False(t, e.Connected())
	assert.Equal(t, refused, e.ConnectErr())
	assert.Equal(t, RoleClient, e.Role())
	assert.NoError(t, e.Close())
}

func TestSendWhileDisconnected(t *testing.T) {
	refused := errors.New("connection refused")
	connector, _ := connectTo(nil, refused)
	e := New(context.Background(), connector, "10.0.0.1", 50051, RoleClient)

	for _, msg := range []*message.Message{message.New("a"), message.New(""), nil} {
		reply, err := e.Send(context.Background(), msg)
		assert.Nil(t, reply)
		require.ErrorIs(t, err, ErrUnavailable)

		var unavailable *UnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, refused, unavailable.Cause)
		assert.NotErrorIs(t, err, refused)
		assert.Contains(t, err.Error(), "connection refused")
	}
	assert.False(t, e.Connected())
}

func TestNilConnWithoutError(t *testing.T) {
	connector, _ := connectTo(nil, nil)
	e := New(context.Background(), connector, "h", 1, RoleServer)

	assert.False(t, e.Connected())
	assert.NoError(t, e.ConnectErr())
	_, err := e.Send(context.Background(), message.New("x"))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "endpoint: no client", err.Error())
}

func TestZeroEndpointIsUnavailable(t *testing.T) {
	var e Endpoint
	_, err := e.Send(context.Background(), message.New("x"))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, e.Connected())
}

func TestSendWhileConnected(t *testing.T) {
	conn := &fakeConn{reply: func(m *message.Message) *message.Message { return message.New("re:" + m.Data) }}
	connector, _ := connectTo(conn, nil)
	e := New(context.Background(), connector, "peer", 50051, RoleClient)

	require.True(t, e.Connected())
	assert.NoError(t, e.ConnectErr())

	reply, err := e.Send(context.Background(), message.New("hi"))
	require.NoError(t, err)
	assert.Equal(t, "re:hi", reply.Data)

	reply, err = e.Send(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "re:", reply.Data)
	assert.EqualValues(t, 2, conn.sends.Load())

	require.NoError(t, e.Close())
	assert.True(t, conn.closed.Load())
	assert.True(t, e.Connected(), "Close does not reset the link")
}

func TestSendTransportFault(t *testing.T) {
	fault := status.Error(codes.Internal, "peer crashed")
	conn := &fakeConn{err: fault}
	connector, _ := connectTo(conn, nil)
	e := New(context.Background(), connector, "peer", 50051, RoleClient)

	_, err := e.Send(context.Background(), message.New("hi"))

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, fault, transportErr.Err)
	assert.ErrorIs(t, err, fault)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.True(t, e.Connected(), "a failed Send does not disconnect")
}

func TestEndpointResponds(t *testing.T) {
	connector, _ := connectTo(nil, errors.New("down"))

	e := New(context.Background(), connector, "h", 1, RoleServer)
	assert.Equal(t, "Echo: x", e.Respond(context.Background(), message.New("x")).Data)

	custom := ResponderFunc(func(_ context.Context, req *message.Message) *message.Message {
		return message.New("custom " + req.Data)
	})
	e = New(context.Background(), connector, "h", 1, RoleServer, WithResponder(custom))
	assert.Equal(t, "custom x", e.Respond(context.Background(), message.New("x")).Data)
}

var (
	_ Sender    = (*Endpoint)(nil)
	_ Responder = (*Endpoint)(nil)
	_ Responder = Echo{}
)
