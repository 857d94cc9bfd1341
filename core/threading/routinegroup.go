package threading

import "sync"

// RoutineGroup tracks the goroutines a WorkerPool starts for its workers so Close can
// wait for them.
type RoutineGroup struct {
	wg sync.WaitGroup
}

func NewRoutineGroup() *RoutineGroup {
	return &RoutineGroup{}
}

// RunSafe starts fn on a goroutine of the group. A panicking fn is logged and counts as finished.
func (g *RoutineGroup) RunSafe(fn func()) {
	g.wg.Add(1)
	GoSafe(func() {
		defer g.wg.Done()
		fn()
	})
}

// Wait blocks until every goroutine started by the group has returned.
func (g *RoutineGroup) Wait() {
	g.wg.Wait()
}
