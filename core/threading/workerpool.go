package threading

import (
	"errors"
	"strconv"
	"sync"
	"time"
)

var (
	// ErrProcessTimeout returned by WorkerPool to indicate that there no free goroutines during some period of time.
	ErrProcessTimeout = errors.New("process error: timed out")
	// ErrPoolClosed is returned when submitting to a pool after Close.
	ErrPoolClosed = errors.New("process error: worker pool closed")
)

type (
	WorkerPool struct {
		workers chan struct{}
		tasks   chan *TaskEntry
		group   *RoutineGroup

		mu     sync.RWMutex
		closed bool
	}
)

func NewWorkerPool(maxWorkerNum int, bufferSize int, spawnWorkerNum int) *WorkerPool {
	if spawnWorkerNum <= 0 && bufferSize > 0 {
		panic("dead queue configuration detected")
	}
	if spawnWorkerNum > maxWorkerNum {
		panic("spawn worker num larger than max worker num")
	}

	wp := &WorkerPool{
		workers: make(chan struct{}, maxWorkerNum),
		tasks:   make(chan *TaskEntry, bufferSize),
		group:   NewRoutineGroup(),
	}

	for range spawnWorkerNum {
		wp.workers <- struct{}{}
		NewWorker(strconv.Itoa(len(wp.workers)), wp.tasks, nil, wp.group)
	}

	return wp
}

// Submit queues task, blocking until a worker or buffer slot is free.
func (wp *WorkerPool) Submit(task Task) (TaskCancelFunc, error) {
	return wp.process(task, nil)
}

// SubmitTimeout is Submit giving up with ErrProcessTimeout after timeout.
func (wp *WorkerPool) SubmitTimeout(timeout time.Duration, task Task) (TaskCancelFunc, error) {
	return wp.process(task, time.After(timeout))
}

// Close stops accepting tasks and waits for the queued ones to finish.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.tasks)
	wp.mu.Unlock()

	wp.group.Wait()
}

func (wp *WorkerPool) process(task Task, timeout <-chan time.Time) (TaskCancelFunc, error) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return nil, ErrPoolClosed
	}

	entry := NewTaskEntry(task)

	select {
	case <-timeout:
		return nil, ErrProcessTimeout

	case wp.tasks <- entry:
		return entry.Cancel, nil

	case wp.workers <- struct{}{}:
		NewWorker(strconv.Itoa(len(wp.workers)), wp.tasks, entry, wp.group)
		return entry.Cancel, nil
	}
}
