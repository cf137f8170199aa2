// Package server serves dcf.DCFService with a single Responder.
//
// Request processing pipeline:
//
//	gRPC accept → SendMessage → codec (by content-subtype) → Middleware Chain → Responder → reply
//
// Besides dcf.DCFService every server exposes the standard grpc.health.v1 service,
// can advertise itself in a registry, and shuts down gracefully.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"dcf/endpoint"
	"dcf/message"
	"dcf/middleware"
	"dcf/protocol"
	"dcf/registry"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// minPingInterval must stay below transport.DefaultHeartbeat, otherwise clients
// get disconnected with "too_many_pings".
const minPingInterval = 10 * time.Second

// Server answers every inbound SendMessage with its Responder.
type Server struct {
	responder   endpoint.Responder
	grpcServer  *grpc.Server
	health      *health.Server
	logger      *zap.Logger
	middlewares []middleware.Middleware // Applied in the order added
	handler     middleware.HandlerFunc  // middleware(middleware(...(responder)))
	shutdown    atomic.Bool             // Set during shutdown to suppress the Serve error

	mu       sync.Mutex
	listener net.Listener

	registry registry.Registry // nil if not advertising
	service  string
	instance registry.Instance
	ttl      int64
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the logger for lifecycle events. The default discards them.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server whose only dcf.DCFService handler is responder.
func NewServer(responder endpoint.Responder, opts ...Option) *Server {
	s := &Server{
		responder: responder,
		health:    health.NewServer(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.grpcServer = grpc.NewServer(
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             minPingInterval,
			PermitWithoutStream: true,
		}),
	)
	protocol.Register(s.grpcServer, dispatcher{s})
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	return s
}

// Start binds addr, registers an Echo responder as the sole handler and serves
// until the process ends or serving fails. A bad or busy address is reported as
// a *BindError.
func Start(addr string) error {
	return NewServer(endpoint.Echo{}).ListenAndServe(addr)
}

// Use registers a middleware. Must be called before Serve.
func (svr *Server) Use(mw middleware.Middleware) {
	svr.middlewares = append(svr.middlewares, mw)
}

// Advertise makes Serve register instance under service in reg with a lease of
// ttl seconds, and Shutdown deregister it. Must be called before Serve.
func (svr *Server) Advertise(reg registry.Registry, service string, instance registry.Instance, ttl int64) {
	svr.registry = reg
	svr.service = service
	svr.instance = instance
	svr.ttl = ttl
}

// Listen binds the TCP address addr and records the listener, so Addr is valid
// as soon as Listen returns. A bad or busy address is reported as a *BindError.
func (svr *Server) Listen(addr string) (net.Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}
	svr.mu.Lock()
	svr.listener = lis
	svr.mu.Unlock()
	return lis, nil
}

// ListenAndServe calls Listen and then Serve.
func (svr *Server) ListenAndServe(addr string) error {
	lis, err := svr.Listen(addr)
	if err != nil {
		return err
	}
	return svr.Serve(lis)
}

// Serve accepts connections on lis until Shutdown is called or lis fails.
// It returns nil after Shutdown.
func (svr *Server) Serve(lis net.Listener) error {
	svr.mu.Lock()
	svr.listener = lis
	svr.mu.Unlock()

	// Build the middleware chain once at startup (not per-request)
	svr.handler = middleware.Chain(svr.middlewares...)(svr.responder.Respond)

	if svr.registry != nil {
		if err := svr.registry.Register(svr.service, svr.instance, svr.ttl); err != nil {
			svr.logger.Warn("advertise failed", zap.String("service", svr.service), zap.Error(err))
		}
	}

	svr.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	svr.health.SetServingStatus(protocol.ServiceName, healthpb.HealthCheckResponse_SERVING)
	svr.logger.Info("serving", zap.Stringer("addr", lis.Addr()))

	err := svr.grpcServer.Serve(lis)
	if svr.shutdown.Load() {
		return nil
	}
	if err != nil {
		return fmt.Errorf("server: serve %s: %w", lis.Addr(), err)
	}
	return nil
}

// Addr returns the listening address, or nil before Serve.
func (svr *Server) Addr() net.Addr {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	if svr.listener == nil {
		return nil
	}
	return svr.listener.Addr()
}

// Shutdown performs graceful shutdown:
//  1. Deregister from the registry (clients stop finding this server)
//  2. Mark health NOT_SERVING and set the shutdown flag
//  3. Stop accepting and wait for in-flight calls, forcing a stop after timeout
func (svr *Server) Shutdown(timeout time.Duration) error {
	if svr.registry != nil {
		if err := svr.registry.Deregister(svr.service, svr.instance.Addr); err != nil {
			svr.logger.Warn("deregister failed", zap.String("service", svr.service), zap.Error(err))
		}
	}

	// Flag before stopping, so that Serve returns nil rather than an error
	svr.shutdown.Store(true)
	svr.health.Shutdown()

	done := make(chan struct{})
	go func() {
		svr.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		svr.logger.Info("server stopped")
		return nil
	case <-time.After(timeout):
		svr.grpcServer.Stop()
		return fmt.Errorf("timeout waiting for ongoing requests to finish")
	}
}

// dispatcher adapts the handler chain to protocol.Handler. Responders cannot
// fail, so neither can SendMessage.
type dispatcher struct {
	svr *Server
}

func (d dispatcher) SendMessage(ctx context.Context, req *message.Message) (*message.Message, error) {
	reply := d.svr.handler(ctx, req)
	if reply == nil {
		reply = &message.Message{}
	}
	return reply, nil
}
