package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// handlerSpanPrefix names the only spans this package opens itself. Middleware and
// response helpers run inside the otelhttp request span instead.
const handlerSpanPrefix = "httpapi.Handler."

var handlerTracer = otel.Tracer("github.com/riskibarqy/gym-league/internal/interfaces/httpapi")

// startSpan opens a child of the request span. Routes excluded from tracing, such
// as /healthz, carry no request span and get a no-op one back.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !isHandlerSpan(name) || !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, noop.Span{}
	}
	return handlerTracer.Start(ctx, name)
}

func isHandlerSpan(name string) bool {
	return strings.HasPrefix(name, handlerSpanPrefix) && len(name) > len(handlerSpanPrefix)
}
