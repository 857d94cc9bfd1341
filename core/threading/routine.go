package threading

import (
	"context"

	"github.com/world-in-progress/hermes/core/rescue"
)

// RunSafe calls fn and logs a panic instead of letting it unwind further.
func RunSafe(fn func()) {
	defer rescue.Recover()
	fn()
}

// RunSafeCtx is RunSafe naming the tag attached to ctx with rescue.WithTag in the log.
func RunSafeCtx(ctx context.Context, fn func()) {
	defer rescue.RecoverCtx(ctx)
	fn()
}

// GoSafe runs fn on its own goroutine; a panic there does not take the process down.
func GoSafe(fn func()) {
	go RunSafe(fn)
}

// GoSafeCtx is GoSafe for a tagged context, used where several background jobs log alike.
func GoSafeCtx(ctx context.Context, fn func()) {
	go RunSafeCtx(ctx, fn)
}
