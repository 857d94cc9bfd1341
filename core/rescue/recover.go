package rescue

import (
	"context"
	"runtime/debug"

	"github.com/world-in-progress/hermes/core/logger"
)

type ctxKey struct{}

// WithTag attaches a tag to ctx that RecoverCtx includes in its log line.
func WithTag(ctx context.Context, tag string) context.Context {
	return context.WithValue(ctx, ctxKey{}, tag)
}

// Recover runs cleanups and logs the panic, if any. Must be deferred.
func Recover(cleanups ...func()) {
	if r := recover(); r != nil {
		for _, cleanup := range cleanups {
			cleanup()
		}
		logger.Error("Recovered from panic: %v\n%s", r, debug.Stack())
	}
}

// RecoverCtx is Recover with the tag stored in ctx added to the log line.
func RecoverCtx(ctx context.Context, cleanups ...func()) {
	if r := recover(); r != nil {
		for _, cleanup := range cleanups {
			cleanup()
		}
		tag, _ := ctx.Value(ctxKey{}).(string)
		logger.Error("Recovered from panic in %q: %v\n%s", tag, r, debug.Stack())
	}
}
