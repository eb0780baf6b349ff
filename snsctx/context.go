// Package snsctx carries per-call switches through context to drivers and bus adapters.
package snsctx

import "context"

type ctxIndex int

const ctxIndexVerbose ctxIndex = iota

// IsVerbose reports whether raw bus frames should be dumped at debug level.
func IsVerbose(ctx context.Context) bool {
	verbose, _ := ctx.Value(ctxIndexVerbose).(bool)
	return verbose
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}
