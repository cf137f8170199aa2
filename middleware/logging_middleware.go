package middleware

import (
	"context"
	"time"

	"dcf/message"

	"go.uber.org/zap"
)

// LoggingMiddleware logs one line per inbound request at debug level.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Message) *message.Message {
			start := time.Now()
			reply := next(ctx, req)
			logger.Debug("handled message",
				zap.String("sender", req.GetSender()),
				zap.Int("request_bytes", len(req.GetData())),
				zap.Int("reply_bytes", len(reply.GetData())),
				zap.Duration("duration", time.Since(start)),
			)
			return reply
		}
	}
}
