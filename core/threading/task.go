package threading

import (
	"sync/atomic"
)

type (
	// Task is a unit of work run by a WorkerPool.
	Task interface {
		GetID() string
		Process() error
	}

	// BaseTask is the basic structure for a Task interface.
	BaseTask struct {
		ID        string
		done      atomic.Bool
		cancelled atomic.Bool
	}

	// TaskEntry wraps a submitted task with its completion state.
	TaskEntry struct {
		BaseTask
		task Task
	}

	// TaskCancelFunc is used to cancel the execution of a task. Return false if task has been done.
	TaskCancelFunc func() bool
)

func NewTaskEntry(task Task) *TaskEntry {
	return &TaskEntry{
		BaseTask: BaseTask{ID: task.GetID()},
		task:     task,
	}
}

func (bt *BaseTask) GetID() string      { return bt.ID }
func (bt *BaseTask) Complete()          { bt.done.Store(true) }
func (bt *BaseTask) IsCanceled() bool   { return bt.cancelled.Load() }
func (bt *BaseTask) IsIgnoreable() bool { return bt.cancelled.Load() || bt.done.Load() }
func (bt *BaseTask) Cancel() bool {
	if bt.done.CompareAndSwap(false, true) {
		bt.cancelled.Store(true)
		return true
	}
	return false
}
