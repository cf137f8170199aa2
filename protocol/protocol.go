// Package protocol defines the wire contract between endpoints.
//
// There is exactly one service with one unary method:
//
//	service dcf.DCFService {
//	  rpc SendMessage(Message) returns (Message);
//	}
//
// The contract is carried by gRPC over HTTP/2. Message bodies are serialized by a
// codec from package codec, chosen by content-subtype ("application/grpc+json").
// The service descriptor is written by hand because Message is a plain Go struct,
// not generated from a .proto file.
package protocol

import (
	"context"

	"dcf/message"

	"google.golang.org/grpc"

	// Registers the message codecs with gRPC.
	_ "dcf/codec"
)

const (
	ServiceName       = "dcf.DCFService"
	SendMessageMethod = "/" + ServiceName + "/SendMessage"
)

// Handler is the server side of the contract.
type Handler interface {
	SendMessage(ctx context.Context, req *message.Message) (*message.Message, error)
}

// ServiceDesc describes dcf.DCFService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SendMessage",
			Handler:    sendMessageHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "messages.proto",
}

// Register attaches h as the sole dcf.DCFService implementation of s.
func Register(s grpc.ServiceRegistrar, h Handler) {
	s.RegisterService(&ServiceDesc, h)
}

// Invoke performs one SendMessage round trip over cc.
func Invoke(ctx context.Context, cc grpc.ClientConnInterface, req *message.Message, opts ...grpc.CallOption) (*message.Message, error) {
	reply := new(message.Message)
	if err := cc.Invoke(ctx, SendMessageMethod, req, reply, opts...); err != nil {
		return nil, err
	}
	return reply, nil
}

func sendMessageHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(message.Message)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).SendMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SendMessageMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Handler).SendMessage(ctx, req.(*message.Message))
	}
	return interceptor(ctx, in, info, handler)
}
