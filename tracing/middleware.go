package tracing

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
)

// TracerFactory builds the tracer for one inbound flow. Handing every
// request its own tracer keeps concurrent requests' span stacks isolated;
// returning a shared tracer is only safe for sequential traffic.
type TracerFactory func(ctx context.Context) *Tracer

// HTTPMiddleware creates Gin middleware that traces each request: it starts
// a fresh trace on a tracer from newTracer, binds the tracer into the
// request context so nested calls resolve it via Current, records one
// http_request span covering the handler, and echoes the trace id in the
// X-Trace-ID response header.
//
// Trace ids are never read from inbound headers; each process traces its own
// work.
func HTTPMiddleware(newTracer TracerFactory) gin.HandlerFunc {
	return func(c *gin.Context) {
		tracer := newTracer(c.Request.Context())
		traceID := tracer.StartTrace("")

		ctx := NewContext(c.Request.Context(), tracer)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Trace-ID", traceID)

		span := tracer.StartSpan(c.FullPath(), WithKind(KindHTTPRequest))
		span.SetMeta("http.method", c.Request.Method)
		span.SetMeta("http.url", c.Request.URL.String())
		span.SetMeta("http.host", c.Request.Host)

		c.Next()

		span.SetMeta("http.status", strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.Fail(c.Errors.Last())
		}

		_ = span.End() // persistence failures are logged, not sent to clients
		tracer.EndTrace()
	}
}

// GRPCUnaryInterceptor creates a gRPC unary server interceptor that wraps
// each RPC in its own trace with one rpc span. No trace context crosses the
// process boundary; incoming metadata is left untouched.
func GRPCUnaryInterceptor(newTracer TracerFactory) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		tracer := newTracer(ctx)
		tracer.StartTrace("")
		ctx = NewContext(ctx, tracer)

		span := tracer.StartSpan(info.FullMethod, WithKind(KindRPC))
		span.SetMeta("rpc.system", "grpc")
		span.SetMeta("rpc.method", info.FullMethod)

		resp, err := handler(ctx, req)
		if err != nil {
			span.Fail(err)
		}

		_ = span.End()
		tracer.EndTrace()

		return resp, err
	}
}
