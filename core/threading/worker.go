package threading

import "github.com/world-in-progress/hermes/core/logger"

type Worker struct {
	ID string
}

func NewWorker(workerID string, taskChan chan *TaskEntry, firstEntry *TaskEntry, group *RoutineGroup) *Worker {

	w := &Worker{
		ID: workerID,
	}

	// start worker
	group.RunSafe(func() {

		if firstEntry != nil {
			w.run(firstEntry)
			firstEntry = nil // cut off reference
		}

		for entry := range taskChan {
			w.run(entry)
		}
	})
	return w
}

func (w *Worker) run(entry *TaskEntry) {
	if entry.IsIgnoreable() {
		if entry.IsCanceled() {
			logger.Debug("Task (ID: %s) has been canceled", entry.GetID())
		} else {
			logger.Debug("Task (ID: %s) has already been done", entry.GetID())
		}
		return
	}

	// a panicking task must not take the worker down with it
	RunSafe(func() {
		if err := entry.task.Process(); err != nil {
			logger.Error("Task (ID: %s) failed on worker %s: %v", entry.GetID(), w.ID, err)
		}
	})
	entry.Complete()
}
