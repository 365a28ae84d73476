// Package workerpool implements a fixed-size pool of workers consuming
// unit-of-work closures from a mutex-and-condvar guarded FIFO.
package workerpool

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/revolution-robotics/control-plane/controlplane/logging"
)

// Job is a unit of work submitted to the pool.
type Job func()

// Pool is a fixed-size worker pool. Workers block while the queue is empty
// and the pool is running; Shutdown wakes all workers, letting each drain
// its current job before exiting. There is no ordering guarantee between
// jobs submitted from different goroutines.
type Pool struct {
	logger logging.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	jobs     []Job
	shutdown bool
	wg       sync.WaitGroup
}

// New starts a Pool with size workers. size <= 0 defaults to
// runtime.NumCPU().
func New(size int, logger logging.Logger) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if logger == nil {
		logger = logging.NoopLogger{}
	}
	p := &Pool{logger: logger}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

// Submit appends job and wakes one waiting worker.
func (p *Pool) Submit(job Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shutdown {
		p.logger.Warn("workerpool_submit_after_shutdown")
		return
	}
	p.jobs = append(p.jobs, job)
	p.cond.Signal()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.jobs) == 0 && !p.shutdown {
			p.cond.Wait()
		}
		if len(p.jobs) == 0 && p.shutdown {
			p.mu.Unlock()
			return
		}
		job := p.jobs[0]
		p.jobs = p.jobs[1:]
		p.mu.Unlock()

		p.runJob(job)
	}
}

// runJob executes job to completion, recovering and logging any panic so
// one bad handler cannot take down a worker goroutine.
func (p *Pool) runJob(job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("workerpool_job_panic", "recovered", r, "stack", string(debug.Stack()))
		}
	}()
	job()
}

// Shutdown signals every worker to exit once its current job (if any)
// completes and the queue has drained, then waits for all to exit.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	p.shutdown = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}

// PendingCount reports the number of jobs currently queued, not counting
// any job a worker is actively executing.
func (p *Pool) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}
