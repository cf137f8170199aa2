// Package endpoint is one process's view of a single remote peer.
//
// An Endpoint is client-capable: it owns at most one outbound connection, opened
// once at construction and never reopened. It is also server-capable: it
// implements Responder, so it can be registered as the handler for requests other
// peers send to this process. A server-only process does not need an Endpoint at
// all and registers a bare Responder such as Echo.
package endpoint

import (
	"context"

	"dcf/message"
	"dcf/transport"
)

// Role is a static label for diagnostics. It never changes behavior.
type Role string

const (
	RoleClient Role = "client"
	RoleServer Role = "server"
	RoleP2P    Role = "p2p"
	RoleAuto   Role = "auto"
	RoleMaster Role = "master"
)

// Sender is the client-side capability.
type Sender interface {
	Send(ctx context.Context, msg *message.Message) (*message.Message, error)
}

// link is the connection state: exactly one of disconnected or connected.
type link interface {
	isLink()
}

type disconnected struct {
	cause error // why the connect attempt failed, nil if none was made
}

type connected struct {
	conn transport.Conn
}

func (disconnected) isLink() {}
func (connected) isLink()    {}

// Endpoint pairs an optional outbound connection with a Responder.
type Endpoint struct {
	link      link
	role      Role
	responder Responder
}

// Option customizes an Endpoint.
type Option func(*Endpoint)

// WithResponder replaces the default Echo responder.
func WithResponder(r Responder) Option {
	return func(e *Endpoint) {
		e.responder = r
	}
}

// New attempts one connection to host:port through connector and always returns
// an Endpoint. A failed attempt leaves the Endpoint disconnected and records the
// cause; the Endpoint remains usable as a Responder.
func New(ctx context.Context, connector transport.Connector, host string, port uint16, role Role, opts ...Option) *Endpoint {
	e := &Endpoint{
		link:      disconnected{},
		role:      role,
		responder: Echo{},
	}
	for _, opt := range opts {
		opt(e)
	}

	conn, err := connector.Connect(ctx, host, port)
	switch {
	case err != nil:
		e.link = disconnected{cause: err}
	case conn == nil:
		e.link = disconnected{}
	default:
		e.link = connected{conn: conn}
	}
	return e
}

// Dial is New with a gRPC connector using the JSON codec.
func Dial(ctx context.Context, host string, port uint16, role Role, opts ...Option) *Endpoint {
	return New(ctx, transport.NewGRPCConnector(""), host, port, role, opts...)
}

// Send delivers msg to the peer and waits for the reply.
//
// A disconnected Endpoint fails immediately with an *UnavailableError and does no
// I/O. Anything that goes wrong below the Endpoint comes back as a
// *TransportError wrapping the original error. Send never changes the
// connection state.
func (e *Endpoint) Send(ctx context.Context, msg *message.Message) (*message.Message, error) {
	switch l := e.link.(type) {
	case connected:
		if msg == nil {
			msg = &message.Message{}
		}
		reply, err := l.conn.Send(ctx, msg)
		if err != nil {
			return nil, &TransportError{Op: "send", Err: err}
		}
		return reply, nil
	case disconnected:
		return nil, &UnavailableError{Cause: l.cause}
	default:
		return nil, &UnavailableError{}
	}
}

// Respond implements Responder by delegating to the configured responder.
func (e *Endpoint) Respond(ctx context.Context, req *message.Message) *message.Message {
	return e.responder.Respond(ctx, req)
}

// Connected reports whether the Endpoint can act as a client.
func (e *Endpoint) Connected() bool {
	_, ok := e.link.(connected)
	return ok
}

// ConnectErr returns why construction could not connect, or nil.
func (e *Endpoint) ConnectErr() error {
	if l, ok := e.link.(disconnected); ok {
		return l.cause
	}
	return nil
}

// Role returns the label given at construction.
func (e *Endpoint) Role() Role {
	return e.role
}

// Close releases the outbound connection. The Endpoint stays in the connected
// state; later Sends fail with a *TransportError.
func (e *Endpoint) Close() error {
	if l, ok := e.link.(connected); ok {
		return l.conn.Close()
	}
	return nil
}
