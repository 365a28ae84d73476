package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPoolRunsAllSubmittedJobs(t *testing.T) {
	p := New(4, nil)
	defer p.Shutdown()

	var count atomic.Int32
	var wg sync.WaitGroup
	wg.Add(20)
	for i := 0; i < 20; i++ {
		p.Submit(func() {
			count.Add(1)
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("jobs did not complete in time")
	}
	assert.Equal(t, int32(20), count.Load())
}

func TestSingleWorkerPoolPreservesSubmissionOrder(t *testing.T) {
	p := New(1, nil)
	defer p.Shutdown()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		i := i
		p.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestPanicInJobDoesNotKillWorker(t *testing.T) {
	p := New(1, nil)
	defer p.Shutdown()

	var ran atomic.Bool
	p.Submit(func() { panic("boom") })

	var wg sync.WaitGroup
	wg.Add(1)
	p.Submit(func() {
		ran.Store(true)
		wg.Done()
	})
	wg.Wait()
	assert.True(t, ran.Load())
}

func TestShutdownDrainsQueueThenExits(t *testing.T) {
	p := New(2, nil)
	var count atomic.Int32
	for i := 0; i < 10; i++ {
		p.Submit(func() { count.Add(1) })
	}
	p.Shutdown()
	assert.Equal(t, int32(10), count.Load())
}
