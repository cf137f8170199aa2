// Package middleware wraps a Responder with cross-cutting behavior.
//
// Middlewares compose in the onion model:
//
//	Chain(A, B)(h) → A(B(h))
//	A.before → B.before → h → B.after → A.after
package middleware

import (
	"context"

	"dcf/message"
)

// HandlerFunc has the shape of endpoint.Responder.Respond.
type HandlerFunc func(ctx context.Context, req *message.Message) *message.Message

type Middleware func(next HandlerFunc) HandlerFunc

// Chain combines middlewares into one, outermost first.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
