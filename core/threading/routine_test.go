package threading

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/world-in-progress/hermes/core/rescue"
)

func TestGoSafeCtxRecovers(t *testing.T) {
	done := make(chan struct{})
	GoSafeCtx(rescue.WithTag(context.Background(), "register hunreal"), func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("goroutine did not finish")
	}
}

func TestRoutineGroupWaitsPastPanics(t *testing.T) {
	g := NewRoutineGroup()
	var finished atomic.Int32
	for i := range 4 {
		g.RunSafe(func() {
			defer finished.Add(1)
			if i%2 == 0 {
				panic("boom")
			}
		})
	}
	g.Wait()
	assert.Equal(t, int32(4), finished.Load())
}
