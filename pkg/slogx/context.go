package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithShop attaches a shop-scoped logger to the context so every log line
// emitted downstream carries the tenant it belongs to.
func WithShop(ctx context.Context, shopID string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("shop_id", shopID))
}
