package threading

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTask struct {
	id    string
	count *atomic.Int32
	wg    *sync.WaitGroup
	err   error
	panic bool
}

func (ct *countingTask) GetID() string { return ct.id }

func (ct *countingTask) Process() error {
	defer ct.wg.Done()
	if ct.panic {
		panic("task exploded")
	}
	ct.count.Add(1)
	return ct.err
}

func TestWorkerPoolRunsAllTasks(t *testing.T) {
	wp := NewWorkerPool(4, 16, 2)
	defer wp.Close()

	var count atomic.Int32
	var wg sync.WaitGroup
	const taskNum = 200
	wg.Add(taskNum)
	for i := range taskNum {
		_, err := wp.Submit(&countingTask{id: strconv.Itoa(i), count: &count, wg: &wg})
		require.NoError(t, err)
	}
	wg.Wait()
	assert.Equal(t, int32(taskNum), count.Load())
}

func TestWorkerSurvivesPanicsAndErrors(t *testing.T) {
	wp := NewWorkerPool(1, 4, 1)
	defer wp.Close()

	var count atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)
	_, err := wp.Submit(&countingTask{id: "panics", count: &count, wg: &wg, panic: true})
	require.NoError(t, err)
	_, err = wp.Submit(&countingTask{id: "fails", count: &count, wg: &wg, err: errors.New("nope")})
	require.NoError(t, err)
	_, err = wp.Submit(&countingTask{id: "works", count: &count, wg: &wg})
	require.NoError(t, err)
	wg.Wait()

	assert.Equal(t, int32(2), count.Load())
}

func TestTaskCancel(t *testing.T) {
	entry := NewTaskEntry(&countingTask{id: "x"})
	assert.True(t, entry.Cancel())
	assert.True(t, entry.IsCanceled())
	assert.True(t, entry.IsIgnoreable())
	assert.False(t, entry.Cancel())

	done := NewTaskEntry(&countingTask{id: "y"})
	done.Complete()
	assert.False(t, done.Cancel())
	assert.False(t, done.IsCanceled())
}

type blockingTask struct {
	release chan struct{}
}

func (bt *blockingTask) GetID() string { return "blocking" }
func (bt *blockingTask) Process() error {
	<-bt.release
	return nil
}

func TestSubmitTimeout(t *testing.T) {
	wp := NewWorkerPool(1, 0, 1)
	release := make(chan struct{})

	// occupy the only worker, then the unbuffered queue has no taker
	_, err := wp.Submit(&blockingTask{release: release})
	require.NoError(t, err)

	_, err = wp.SubmitTimeout(20*time.Millisecond, &blockingTask{release: release})
	assert.ErrorIs(t, err, ErrProcessTimeout)

	close(release)
	wp.Close()

	_, err = wp.Submit(&blockingTask{release: release})
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestNewWorkerPoolRejectsDeadConfig(t *testing.T) {
	assert.Panics(t, func() { NewWorkerPool(1, 10, 0) })
	assert.Panics(t, func() { NewWorkerPool(1, 0, 2) })
}
