package endpoint

import (
	"context"

	"dcf/message"
)

// EchoPrefix is prepended to every payload Echo answers.
const EchoPrefix = "Echo: "

// Responder turns one inbound request into a reply. It has no error path: every
// request gets a reply.
type Responder interface {
	Respond(ctx context.Context, req *message.Message) *message.Message
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, req *message.Message) *message.Message

func (f ResponderFunc) Respond(ctx context.Context, req *message.Message) *message.Message {
	return f(ctx, req)
}

// Echo is the diagnostic responder: the reply payload is EchoPrefix followed by
// the request payload, every other field is zero. Stateless, so safe for any
// number of concurrent calls.
type Echo struct{}

func (Echo) Respond(_ context.Context, req *message.Message) *message.Message {
	return &message.Message{Data: EchoPrefix + req.GetData()}
}
