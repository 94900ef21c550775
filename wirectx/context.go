// Package wirectx carries per-call bus settings through context.Context.
package wirectx

import "context"

type ctxIndex int

const ctxIndexTrace ctxIndex = iota

// IsTrace reports whether transports should dump every transferred buffer.
func IsTrace(ctx context.Context) bool {
	val := ctx.Value(ctxIndexTrace)
	if val == nil {
		return false
	}
	return val.(bool)
}

func SetTrace(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexTrace, value)
}
