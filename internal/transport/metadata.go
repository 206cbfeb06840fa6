package transport

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/metadata"
)

const (
	headerLanguage  = "accept-language"
	headerRequestID = "x-request-id"
	headerTerminal  = "x-terminal-id"
)

type ctxKey string

// Language returns the caller's Accept-Language, from the context or from
// incoming gRPC metadata.
func Language(ctx context.Context) string {
	if val, ok := ctx.Value(ctxKey(headerLanguage)).(string); ok {
		return val
	}
	return incoming(ctx, headerLanguage)
}

// RequestID returns the caller-supplied request id, if any. Sales use it as
// their idempotency key when the body does not carry one.
func RequestID(ctx context.Context) string {
	if val, ok := ctx.Value(ctxKey(headerRequestID)).(string); ok {
		return val
	}
	return incoming(ctx, headerRequestID)
}

// TerminalID identifies the till a request came from. Only used for logging.
func TerminalID(ctx context.Context) string {
	if val, ok := ctx.Value(ctxKey(headerTerminal)).(string); ok {
		return val
	}
	return incoming(ctx, headerTerminal)
}

func incoming(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if val := md.Get(key); len(val) > 0 {
		return strings.TrimSpace(val[0])
	}
	return ""
}

// requestContext copies the caller headers of a REST request into its context,
// so use cases see the same values as over gRPC.
func requestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	for _, h := range []string{headerLanguage, headerRequestID, headerTerminal} {
		if v := strings.TrimSpace(c.GetHeader(h)); v != "" {
			ctx = context.WithValue(ctx, ctxKey(h), v)
		}
	}
	return ctx
}
