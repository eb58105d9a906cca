package trace

import "context"

type (
	tracerKey struct{}
	parentKey struct{}
)

// WithTracer attaches t to ctx; a nil t attaches Nop.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx != nil {
		if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
			return t
		}
	}
	return Nop
}

// WithParent records span as the parent of spans begun further down the
// call chain. A span of a disabled tracer leaves ctx unchanged.
func WithParent(ctx context.Context, span *Span) context.Context {
	if id := span.ID(); id != 0 {
		return context.WithValue(ctx, parentKey{}, id)
	}
	return ctx
}

// ParentFrom returns the span id recorded by WithParent, or 0.
func ParentFrom(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(parentKey{}).(uint64)
	return id
}
