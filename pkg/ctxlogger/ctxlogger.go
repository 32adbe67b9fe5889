package ctxlogger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// AppendCtx returns a context carrying the given attr in addition to any
// attrs already stored by previous calls.
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	if attrs, ok := parent.Value(ctxKey{}).([]slog.Attr); ok {
		newAttrs := make([]slog.Attr, 0, len(attrs)+1)
		newAttrs = append(newAttrs, attrs...)
		newAttrs = append(newAttrs, attr)
		return context.WithValue(parent, ctxKey{}, newAttrs)
	}

	return context.WithValue(parent, ctxKey{}, []slog.Attr{attr})
}

// ContextHandler decorates a slog.Handler with attrs stored in the context.
type ContextHandler struct {
	slog.Handler
}

func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(ctxKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}

	return h.Handler.Handle(ctx, r)
}
